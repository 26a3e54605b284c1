package codegen_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/tidwall/gjson"

	appcodegen "screen-dev-assistant/internal/application/codegen"
	"screen-dev-assistant/internal/config"
	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/infrastructure/figma"
	"screen-dev-assistant/internal/infrastructure/llm"
)

var pngBlob = []byte("\x89PNG\r\n\x1a\nfake-login-render")

type pipeline struct {
	figmaCalls  atomic.Int32
	claudeCalls atomic.Int32
	claudeBody  atomic.Value
	resolveBody string
	orch        *appcodegen.Orchestrator
}

func newPipeline(t *testing.T, resolveBody string) *pipeline {
	t.Helper()
	p := &pipeline{resolveBody: resolveBody}

	var figmaURL string
	figmaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.figmaCalls.Add(1)
		switch {
		case strings.HasPrefix(r.URL.Path, "/v1/images/ABC"):
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(strings.ReplaceAll(p.resolveBody, "{{self}}", figmaURL)))
		case r.URL.Path == "/renders/login.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngBlob)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(figmaSrv.Close)
	figmaURL = figmaSrv.URL

	claudeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.claudeCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		p.claudeBody.Store(body)
		resp, _ := json.Marshal(map[string]any{
			"id":          "msg_login",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-3-5-sonnet-20241022",
			"content":     []map[string]any{{"type": "text", "text": "```jsx\n<Login/>\n```"}},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 900, "output_tokens": 12},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(resp)
	}))
	t.Cleanup(claudeSrv.Close)

	fetcher := figma.NewClient(config.FigmaConfig{BaseURL: figmaSrv.URL, Token: "figd_test"})
	generator, err := llm.NewCodeGenerator(config.GenerationConfig{
		Provider: llm.ProviderAnthropic, Endpoint: claudeSrv.URL + "/v1/messages",
		APIKey: "sk-ant-test", Model: "claude-3-5-sonnet-20241022", MaxTokens: 4096,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	p.orch = appcodegen.NewOrchestrator(fetcher, generator)
	return p
}

func loginInput() appcodegen.Input {
	return appcodegen.Input{
		Reference:    domain.DesignReference{FileID: "ABC", NodeID: "1:2"},
		ScreenName:   "Login",
		Requirements: []domain.Requirement{{Overview: "Auth", Context: "Email+password"}},
	}
}

func TestPipelineLoginScreen(t *testing.T) {
	p := newPipeline(t, `{"err":null,"images":{"1:2":"{{self}}/renders/login.png"}}`)

	result, err := p.orch.Run(context.Background(), loginInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Succeeded() || result.Code != "<Login/>" {
		t.Fatalf("result = %+v", result)
	}
	if p.claudeCalls.Load() != 1 {
		t.Fatalf("generation calls = %d, want 1", p.claudeCalls.Load())
	}

	body, _ := p.claudeBody.Load().([]byte)
	var text string
	gjson.GetBytes(body, "messages.0.content").ForEach(func(_, block gjson.Result) bool {
		if block.Get("type").String() == "text" {
			text = block.Get("text").String()
			return false
		}
		return true
	})
	if !strings.HasPrefix(text, "Screen: Login") || !strings.Contains(text, "- Auth: Email+password") {
		t.Fatalf("text block = %q", text)
	}
	if !strings.Contains(string(body), base64.StdEncoding.EncodeToString(pngBlob)) {
		t.Fatalf("image data missing from request")
	}
	if p.orch.Snapshot().State != appcodegen.StateSucceeded {
		t.Fatalf("state = %s", p.orch.Snapshot().State)
	}
}

func TestPipelineInvalidFile(t *testing.T) {
	p := newPipeline(t, `{"status":400,"err":"invalid file"}`)

	result, err := p.orch.Run(context.Background(), loginInput())
	if err != nil {
		t.Fatal(err)
	}
	if result.Succeeded() || result.Kind != domain.KindResolution || result.Reason != "invalid file" || result.Stage != domain.StageFetch {
		t.Fatalf("result = %+v", result)
	}
	if p.claudeCalls.Load() != 0 {
		t.Fatalf("generation client calls = %d, want 0", p.claudeCalls.Load())
	}

	snap := p.orch.Snapshot()
	if snap.State != appcodegen.StateFailed || snap.Reason != "invalid file" || snap.Stage != domain.StageFetch {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestPipelineMissingReference(t *testing.T) {
	p := newPipeline(t, `{}`)
	in := loginInput()
	in.Reference.NodeID = ""

	result, _ := p.orch.Run(context.Background(), in)
	if result.Kind != domain.KindMissingReference {
		t.Fatalf("result = %+v", result)
	}
	if calls := p.figmaCalls.Load() + p.claudeCalls.Load(); calls != 0 {
		t.Fatalf("network calls = %d, want 0", calls)
	}
	if !errors.Is(domain.MissingReferenceError(in.Reference), domain.ErrMissingReference) {
		t.Fatal("sentinel mismatch")
	}
}
