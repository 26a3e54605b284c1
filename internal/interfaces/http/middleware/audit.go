package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"screen-dev-assistant/pkg/logger"
)

// SystemPaths 探针与指标端点，不参与审计、追踪与 HTTP 指标
var SystemPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
}

func pathSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}

// AuditConfig 审计配置
type AuditConfig struct {
	Enabled   bool
	SkipPaths []string
}

// auditLevel 5xx 记为 error，4xx 记为 warn
func auditLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Audit 每个业务请求结束后输出一行审计日志
func Audit(cfg AuditConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	skip := pathSet(cfg.SkipPaths)

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"route", routeOf(c),
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"body_size", c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		logger.FromContext(ctx).Log(ctx, auditLevel(status), "api audit", attrs...)
	}
}
