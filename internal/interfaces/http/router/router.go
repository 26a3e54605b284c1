// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/internal/interfaces/http/handler"
	"screen-dev-assistant/internal/interfaces/http/middleware"
)

// RouterHandlers 路由依赖的全部处理器，由 wire 按字段注入
type RouterHandlers struct {
	Health      *handler.HealthHandler
	Screen      *handler.ScreenHandler
	Requirement *handler.RequirementHandler
	Codegen     *handler.CodegenHandler
	Job         *handler.JobHandler
	Review      *handler.ReviewHandler
	Relay       *handler.RelayHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers *RouterHandlers
	limiter  middleware.RateLimiter
}

// NewWithDeps 创建带完整依赖的路由器
func NewWithDeps(cfg *config.Config, handlers *RouterHandlers, limiter middleware.RateLimiter) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		limiter:  limiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name, middleware.SystemPaths...))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(middleware.SystemPaths...))
	}

	r.engine.Use(middleware.Audit(middleware.AuditConfig{
		Enabled:   true,
		SkipPaths: middleware.SystemPaths,
	}))
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	health := r.handlers.Health
	r.engine.GET("/health", health.Health)
	r.engine.GET("/ready", health.Ready)
	r.engine.GET("/live", health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.engine.Group("/v1")
	v1.Use(middleware.RateLimit(rateLimitConfig(r.cfg.Security.RateLimit, "api"), r.limiter))
	RegisterV1Routes(v1, r.handlers, middleware.RateLimit(rateLimitConfig(r.cfg.Codegen.RateLimit, "codegen"), r.limiter))
}

func rateLimitConfig(cfg config.RateLimitConfig, scope string) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Enabled: cfg.Enabled,
		Limit:   cfg.Limit,
		Window:  cfg.Window,
		Scope:   scope,
	}
}
