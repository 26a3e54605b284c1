// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/infrastructure/persistence/redis"
	"screen-dev-assistant/internal/interfaces/http/dto"
	apperrors "screen-dev-assistant/pkg/errors"
	"screen-dev-assistant/pkg/logger"
	"screen-dev-assistant/pkg/metrics"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// Enabled 是否启用限流
	Enabled bool
	// Limit 窗口内允许的请求数
	Limit int
	// Window 滑动窗口长度
	Window time.Duration
	// Scope 区分不同限流规则，例如 api、codegen
	Scope string
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 按客户端 IP 的滑动窗口限流中间件
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Scope == "" {
		cfg.Scope = "api"
	}
	limitHeader := strconv.Itoa(cfg.Limit)

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := redis.RateLimitKey(cfg.Scope, c.ClientIP())

		allowed, err := limiter.Allow(ctx, key, cfg.Limit, cfg.Window)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(ctx, "rate limiter unavailable", "scope", cfg.Scope, "error", err.Error())
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limitHeader)
		if !allowed {
			metrics.HTTPRateLimited.WithLabelValues(cfg.Scope).Inc()
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			dto.Abort(c, http.StatusTooManyRequests, apperrors.CodeTooManyRequests, "rate limit exceeded")
			return
		}

		c.Next()
	}
}
