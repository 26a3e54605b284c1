// Package middleware 提供 HTTP 中间件
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"screen-dev-assistant/pkg/logger"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 128

// validRequestID 只接受可打印 ASCII，避免调用方把换行或控制字符带进日志
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// RequestID 沿用调用方的请求 ID，缺失或不合法时生成新的，并写入响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), logger.RequestIDKey, requestID))
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// ScreenContext 把路由中的屏幕 ID 写入日志上下文与当前 span，需挂在带 :sid 的分组上
func ScreenContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sid := c.Param("sid"); sid != "" {
			ctx := logger.WithContext(c.Request.Context(), logger.ScreenIDKey, sid)
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("screen_id", sid))
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
