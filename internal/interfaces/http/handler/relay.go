package handler

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/internal/interfaces/http/dto"
	"screen-dev-assistant/pkg/logger"
)

// RelayHandler 生成服务中转，服务端注入凭证，客户端不持有 API Key
type RelayHandler struct {
	enabled bool
	apiKey  string
	version string
	target  *url.URL
	proxy   *httputil.ReverseProxy
}

// NewRelayHandler 创建中转处理器，目标为 generation.endpoint 的协议与主机
func NewRelayHandler(cfg *config.Config) (*RelayHandler, error) {
	gen := cfg.Generation
	h := &RelayHandler{
		enabled: gen.RelayEnabled,
		apiKey:  gen.APIKey,
		version: gen.APIVersion,
	}
	if !h.enabled {
		return h, nil
	}

	endpoint, err := url.Parse(gen.Endpoint)
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid generation endpoint %q for relay", gen.Endpoint)
	}
	h.target = &url.URL{Scheme: endpoint.Scheme, Host: endpoint.Host}
	h.proxy = &httputil.ReverseProxy{
		Rewrite: h.rewrite,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error(r.Context(), "relay upstream failed", err, "path", r.URL.Path)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	return h, nil
}

func (h *RelayHandler) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(h.target)
	pr.Out.Host = h.target.Host
	pr.Out.Header.Del("Authorization")
	pr.Out.Header.Set("x-api-key", h.apiKey)
	if h.version != "" {
		pr.Out.Header.Set("anthropic-version", h.version)
	}
}

// Relay 转发 /v1/relay/anthropic/*path 到上游同名路径
// @Summary 生成服务中转
// @Tags Relay
// @Accept json
// @Produce json
// @Param path path string true "上游路径，例如 v1/messages"
// @Failure 404 {object} dto.ErrorResponse "未启用"
// @Failure 503 {object} dto.ErrorResponse "未配置凭证"
// @Router /v1/relay/anthropic/{path} [post]
func (h *RelayHandler) Relay(c *gin.Context) {
	if !h.enabled {
		dto.NotFound(c, "relay disabled")
		return
	}
	if h.apiKey == "" {
		dto.ServiceUnavailable(c, "generation credential not configured")
		return
	}

	req := c.Request.Clone(c.Request.Context())
	req.URL.Path = "/" + strings.TrimPrefix(c.Param("path"), "/")
	req.URL.RawPath = ""
	h.proxy.ServeHTTP(c.Writer, req)
}
