// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/internal/infrastructure/persistence/postgres"
	"screen-dev-assistant/internal/infrastructure/persistence/redis"
)

// readyTimeout 就绪检查中所有依赖探测共享的超时
const readyTimeout = 2 * time.Second

// healthChecker 可探活的依赖
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type namedCheck struct {
	name    string
	checker healthChecker
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version string
	checks  []namedCheck
}

// NewHealthHandler 创建健康检查处理器，postgres 与 redis 均为就绪必需项
func NewHealthHandler(cfg *config.Config, pg *postgres.Client, redisClient *redis.Client) *HealthHandler {
	h := &HealthHandler{version: cfg.App.Version}
	var pgCheck, redisCheck healthChecker
	if pg != nil {
		pgCheck = pg
	}
	if redisClient != nil {
		redisCheck = redisClient
	}
	h.checks = []namedCheck{{"postgres", pgCheck}, {"redis", redisCheck}}
	return h
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Description 检查 PostgreSQL 与 Redis 是否可用
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	results := make([]*readinessCheck, len(h.checks))
	var g errgroup.Group
	for i, nc := range h.checks {
		g.Go(func() error {
			results[i] = runCheck(ctx, nc)
			return nil
		})
	}
	_ = g.Wait()

	resp := readinessResponse{Status: "ok", Checks: make(map[string]*readinessCheck, len(h.checks))}
	for i, nc := range h.checks {
		resp.Checks[nc.name] = results[i]
		if results[i].Status != "ok" {
			resp.Status = "not_ready"
		}
	}
	if resp.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func runCheck(ctx context.Context, nc namedCheck) *readinessCheck {
	if nc.checker == nil {
		return &readinessCheck{Status: "missing", Error: nc.name + " client not configured"}
	}
	start := time.Now()
	err := nc.checker.HealthCheck(ctx)
	check := &readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = "error"
		check.Error = err.Error()
	}
	return check
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}
