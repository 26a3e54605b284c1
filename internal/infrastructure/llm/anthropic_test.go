package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/internal/domain/codegen"
)

func sampleRequest() *codegen.GenerationRequest {
	return &codegen.GenerationRequest{
		SystemInstruction: "system",
		Blocks: []codegen.ContentBlock{
			{Type: codegen.BlockText, Text: "Screen: Login\n- Auth: Email+password"},
			{Type: codegen.BlockImage, Image: &codegen.RenderedImage{MediaType: "image/png", Data: "iVBORw0KGgo="}},
		},
	}
}

func anthropicGeneration(endpoint, key string) config.GenerationConfig {
	return config.GenerationConfig{
		Provider:  ProviderAnthropic,
		Endpoint:  endpoint,
		APIKey:    key,
		Model:     "claude-3-5-sonnet-20241022",
		MaxTokens: 4096,
		Timeout:   10 * time.Second,
	}
}

func newAnthropicGenerator(t *testing.T, endpoint, key string) codegen.CodeGenerator {
	t.Helper()
	g, err := NewCodeGenerator(anthropicGeneration(endpoint, key), nil)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestAnthropicProvider(t *testing.T) {
	cases := []struct {
		name string
		gen  config.GenerationConfig
		want config.ProviderConfig
	}{
		{
			name: "messages endpoint",
			gen:  config.GenerationConfig{Endpoint: "https://api.anthropic.com/v1/messages", APIKey: "k", Model: "m", MaxTokens: 1024},
			want: config.ProviderConfig{BaseURL: "https://api.anthropic.com", APIKey: "k", Model: "m", MaxTokens: 1024},
		},
		{
			name: "relay with trailing slash",
			gen:  config.GenerationConfig{Endpoint: "http://gateway:8080/v1/relay/anthropic/v1/messages/", Model: "m"},
			want: config.ProviderConfig{BaseURL: "http://gateway:8080/v1/relay/anthropic", Model: "m", MaxTokens: defaultAnthropicMaxTokens},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, anthropicProvider(tc.gen)); diff != "" {
				t.Fatalf("provider config (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnthropicGenerate(t *testing.T) {
	var (
		path    string
		headers http.Header
		body    []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		headers = r.Header.Clone()
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-sonnet-20241022",
			"content":[{"type":"text","text":"` + "```jsx\\n<Login/>\\n```" + `"}],
			"stop_reason":"end_turn",
			"usage":{"input_tokens":1200,"output_tokens":34}
		}`))
	}))
	defer srv.Close()

	completion, err := newAnthropicGenerator(t, srv.URL+"/v1/messages", "sk-ant-test").Generate(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if completion.Code != "<Login/>" || completion.Provider != ProviderAnthropic || completion.Model != "claude-3-5-sonnet-20241022" {
		t.Fatalf("completion = %+v", completion)
	}

	if path != "/v1/messages" {
		t.Fatalf("path = %q", path)
	}
	if headers.Get("x-api-key") != "sk-ant-test" || headers.Get("anthropic-version") == "" {
		t.Fatalf("unexpected headers: %v", headers)
	}
	req := gjson.ParseBytes(body)
	if req.Get("model").String() != "claude-3-5-sonnet-20241022" || req.Get("max_tokens").Int() != 4096 {
		t.Fatalf("request = %s", body)
	}
	if !strings.Contains(req.Get("system").Raw, "system") {
		t.Fatalf("system instruction missing: %s", body)
	}
	if !strings.Contains(string(body), "Screen: Login") || !strings.Contains(string(body), "iVBORw0KGgo=") {
		t.Fatalf("content blocks missing: %s", body)
	}
}

func TestAnthropicMissingKeyMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := newAnthropicGenerator(t, srv.URL+"/v1/messages", "").Generate(context.Background(), sampleRequest())
	if !errors.Is(err, codegen.ErrAuthentication) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("calls = %d, want 0", calls.Load())
	}
}

func TestAnthropicErrorsAreNotRetried(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, codegen.ErrAuthentication},
		{"overloaded", 529, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, codegen.ErrTransport},
		{"server error", http.StatusInternalServerError, `{"type":"error","error":{"type":"api_error","message":"boom"}}`, codegen.ErrTransport},
		{"rate limited", http.StatusTooManyRequests, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, codegen.ErrTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newAnthropicGenerator(t, srv.URL+"/v1/messages", "k").Generate(context.Background(), sampleRequest())
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if calls.Load() != 1 {
				t.Fatalf("calls = %d, want exactly 1", calls.Load())
			}
		})
	}
}

type failingTransport struct {
	calls atomic.Int32
}

func (f *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls.Add(1)
	return nil, errors.New("connection refused")
}

func TestSingleAttemptReplaysFirstError(t *testing.T) {
	next := &failingTransport{}
	rt := singleAttempt{next: next}
	ctx := withAttempt(context.Background())

	var errs []string
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "http://claude.invalid/v1/messages", nil).WithContext(ctx)
		_, err := rt.RoundTrip(req)
		errs = append(errs, err.Error())
	}
	if next.calls.Load() != 1 {
		t.Fatalf("transport calls = %d, want 1", next.calls.Load())
	}
	if diff := cmp.Diff([]string{"connection refused", "connection refused", "connection refused"}, errs); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}
}

func TestSingleAttemptDisablesServerRetryHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-should-retry", "true")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	req := httptest.NewRequest(http.MethodPost, srv.URL, nil).WithContext(withAttempt(context.Background()))
	req.RequestURI = ""
	resp, err := singleAttempt{next: http.DefaultTransport}.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("x-should-retry"); got != "false" {
		t.Fatalf("x-should-retry = %q", got)
	}
}

func sdkError(status int) *anthropic.Error {
	return &anthropic.Error{
		StatusCode: status,
		Request:    httptest.NewRequest(http.MethodPost, "https://api.anthropic.com/v1/messages", nil),
		Response:   &http.Response{StatusCode: status},
	}
}

func TestClassifySDKStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		want   error
		status int
	}{
		{"unauthorized", sdkError(http.StatusUnauthorized), codegen.ErrAuthentication, 401},
		{"forbidden", sdkError(http.StatusForbidden), codegen.ErrAuthentication, 403},
		{"overloaded", sdkError(529), codegen.ErrTransport, 529},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeChatModel{err: tc.err}
			_, err := NewEinoGenerator(factoryWith(fake), "openai", "gpt-4o").Generate(context.Background(), sampleRequest())
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			var ce *codegen.Error
			if !errors.As(err, &ce) || ce.StatusCode != tc.status {
				t.Fatalf("status not carried: %+v", ce)
			}
		})
	}
}
