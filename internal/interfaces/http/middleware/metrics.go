package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"screen-dev-assistant/pkg/metrics"
)

// Metrics 按路由模板采集 HTTP 指标，skipPaths 中的探针与指标端点不计入
func Metrics(skipPaths ...string) gin.HandlerFunc {
	skip := pathSet(skipPaths)

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		route := routeOf(c)
		method := c.Request.Method
		if size := c.Request.ContentLength; size > 0 {
			metrics.HTTPRequestSize.WithLabelValues(method, route).Observe(float64(size))
		}

		c.Next()

		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		// 设计稿图片是最大的响应体
		if size := c.Writer.Size(); size > 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}
