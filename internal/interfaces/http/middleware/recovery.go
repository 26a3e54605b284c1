// Package middleware 提供 HTTP 中间件
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/interfaces/http/dto"
	apperrors "screen-dev-assistant/pkg/errors"
	"screen-dev-assistant/pkg/logger"
	"screen-dev-assistant/pkg/metrics"
)

// routeOf 返回路由模板，未匹配路由时为 unmatched，避免指标标签随 ID 膨胀
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// Recovery 捕获 panic，记录堆栈后按统一错误结构返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			route := routeOf(c)
			metrics.HTTPPanicsTotal.WithLabelValues(route).Inc()
			logger.Error(c.Request.Context(), "panic recovered",
				fmt.Errorf("%v", rec),
				"stack", string(debug.Stack()),
				"route", route,
				"method", c.Request.Method,
			)

			// 已经开始写响应时只能中断
			if c.Writer.Written() {
				c.Abort()
				return
			}
			dto.Abort(c, http.StatusInternalServerError, apperrors.CodeInternalError, "internal server error")
		}()

		c.Next()
	}
}
