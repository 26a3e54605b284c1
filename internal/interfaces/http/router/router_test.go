package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/internal/interfaces/http/handler"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"

	relay, err := handler.NewRelayHandler(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return NewWithDeps(cfg, &RouterHandlers{
		Health:      handler.NewHealthHandler(cfg, nil, nil),
		Screen:      handler.NewScreenHandler(nil, nil),
		Requirement: handler.NewRequirementHandler(nil),
		Codegen:     handler.NewCodegenHandler(nil, nil),
		Job:         handler.NewJobHandler(nil),
		Review:      handler.NewReviewHandler(nil),
		Relay:       relay,
	}, nil)
}

func TestRoutesRegistered(t *testing.T) {
	r := newTestRouter(t)

	registered := make(map[string]bool)
	for _, route := range r.Engine().Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	want := []string{
		"GET /health",
		"GET /ready",
		"GET /live",
		"GET /metrics",
		"GET /v1/dashboard",
		"GET /v1/screens",
		"POST /v1/screens",
		"GET /v1/screens/:sid",
		"PUT /v1/screens/:sid",
		"PATCH /v1/screens/:sid/status",
		"DELETE /v1/screens/:sid",
		"PUT /v1/screens/:sid/requirements",
		"GET /v1/screens/:sid/design",
		"GET /v1/screens/:sid/design/image",
		"POST /v1/screens/:sid/codegen",
		"GET /v1/screens/:sid/codegen",
		"DELETE /v1/screens/:sid/codegen",
		"GET /v1/screens/:sid/codegen/prompt",
		"GET /v1/screens/:sid/jobs",
		"GET /v1/screens/:sid/review",
		"GET /v1/screens/:sid/review/runs",
		"POST /v1/screens/:sid/review/runs",
		"GET /v1/jobs/:jid",
		"DELETE /v1/jobs/:jid",
		"GET /v1/requirements",
		"POST /v1/requirements",
		"GET /v1/requirements/:rid",
		"PUT /v1/requirements/:rid",
		"DELETE /v1/requirements/:rid",
		"POST /v1/relay/anthropic/*path",
	}
	for _, w := range want {
		if !registered[w] {
			t.Errorf("route %q not registered", w)
		}
	}
}

func TestLiveAndRequestID(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}
