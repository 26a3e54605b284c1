package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
	// 前端需要读取限流与追踪头
	corsExposeHeaders = []string{RequestIDHeader, "X-Trace-ID", "X-RateLimit-Limit", "Retry-After"}
)

// CORS 跨域中间件；没有登录态，因此不允许携带凭证
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  cfg.AllowedMethods,
		AllowHeaders:  cfg.AllowedHeaders,
		ExposeHeaders: corsExposeHeaders,
		MaxAge:        12 * time.Hour,
	}
	if len(c.AllowOrigins) == 0 || (len(c.AllowOrigins) == 1 && c.AllowOrigins[0] == "*") {
		c.AllowOrigins = nil
		c.AllowAllOrigins = true
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = defaultCORSMethods
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = defaultCORSHeaders
	}
	return cors.New(c)
}
