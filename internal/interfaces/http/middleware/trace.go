package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"screen-dev-assistant/pkg/logger"
)

// Trace OpenTelemetry 追踪中间件，skipPaths 中的探针请求不产生 span
func Trace(serviceName string, skipPaths ...string) gin.HandlerFunc {
	skip := pathSet(skipPaths)
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		return !skip[r.URL.Path]
	}))
}

// TraceContext 把 trace_id 与 span_id 写入 gin 与日志上下文，并通过响应头返回
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := trace.SpanFromContext(c.Request.Context()).SpanContext()
		if !sc.IsValid() {
			c.Next()
			return
		}

		traceID := sc.TraceID().String()
		spanID := sc.SpanID().String()
		c.Set("trace_id", traceID)
		c.Set("span_id", spanID)

		ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID)
		ctx = logger.WithContext(ctx, logger.SpanIDKey, spanID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Trace-ID", traceID)

		c.Next()
	}
}
