package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeLimiter struct {
	allowed int
	err     error
	keys    []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return false, f.err
	}
	f.allowed++
	return f.allowed <= limit, nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func do(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	r := newEngine(RateLimit(RateLimitConfig{Enabled: true, Limit: 2, Window: time.Minute, Scope: "codegen"}, limiter))

	for i := 0; i < 2; i++ {
		if w := do(r, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}
	w := do(r, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	if !strings.Contains(w.Body.String(), `"error_code":"1006"`) {
		t.Errorf("body = %s, want rate limit error code", w.Body.String())
	}
	if want := "sda:ratelimit:codegen:192.0.2.1"; limiter.keys[0] != want {
		t.Errorf("key = %q, want %q", limiter.keys[0], want)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := newEngine(RateLimit(RateLimitConfig{Enabled: true, Limit: 1}, &fakeLimiter{err: errors.New("redis down")}))
	if w := do(r, nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	limiter := &fakeLimiter{}
	r := newEngine(RateLimit(RateLimitConfig{Enabled: false}, limiter))
	do(r, nil)
	if len(limiter.keys) != 0 {
		t.Fatalf("limiter called %d times while disabled", len(limiter.keys))
	}
}

func TestRequestIDPropagates(t *testing.T) {
	r := newEngine(RequestID())

	w := do(r, map[string]string{RequestIDHeader: "req-123"})
	if got := w.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("echoed request id = %q, want req-123", got)
	}

	w = do(r, nil)
	if got := w.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("generated request id = %q, want uuid", got)
	}

	w = do(r, map[string]string{RequestIDHeader: "bad id\tinjected"})
	if got := w.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("invalid request id should be replaced, got %q", got)
	}
}

func TestAuditLevel(t *testing.T) {
	cases := map[int]slog.Level{
		http.StatusOK:                  slog.LevelInfo,
		http.StatusAccepted:            slog.LevelInfo,
		http.StatusConflict:            slog.LevelWarn,
		http.StatusTooManyRequests:     slog.LevelWarn,
		http.StatusInternalServerError: slog.LevelError,
		http.StatusBadGateway:          slog.LevelError,
	}
	for status, want := range cases {
		if got := auditLevel(status); got != want {
			t.Errorf("auditLevel(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestRecoveryReturns500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error_code":"1007"`) {
		t.Fatalf("body = %s, want internal error code", w.Body.String())
	}
}

func TestCORSPreflightAllowsPatch(t *testing.T) {
	r := newEngine(CORS(CORSConfig{}))
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPatch) {
		t.Fatalf("allow methods = %q, want PATCH", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("allow credentials = %q, want empty", got)
	}
}
