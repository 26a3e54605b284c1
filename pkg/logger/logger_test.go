package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestFromContextAttachesKnownKeys(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", "json")
	defer Init("info", "json")

	ctx := WithContext(context.Background(), RequestIDKey, "req-1")
	ctx = WithContext(ctx, ScreenIDKey, "scr-9")
	Error(ctx, "generation failed", errors.New("boom"), "stage", "fetch")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	for k, want := range map[string]string{
		"msg":        "generation failed",
		"request_id": "req-1",
		"screen_id":  "scr-9",
		"error":      "boom",
		"stage":      "fetch",
	} {
		if rec[k] != want {
			t.Errorf("%s = %v, want %q", k, rec[k], want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn", "text")
	defer Init("info", "json")

	Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	Warn(context.Background(), "shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}

func TestRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "json")
	defer Init("info", "json")

	Info(context.Background(), "calling figma", "figma_token", "figd_secret", "node", "1:2")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["figma_token"] != redacted {
		t.Errorf("figma_token = %v, want redacted", rec["figma_token"])
	}
	if rec["node"] != "1:2" {
		t.Errorf("node = %v", rec["node"])
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "text")
	defer Init("info", "json")

	Debug(context.Background(), "before")
	SetLevel("debug")
	Debug(context.Background(), "after")

	if bytes.Contains(buf.Bytes(), []byte("before")) {
		t.Error("debug line logged before level change")
	}
	if !bytes.Contains(buf.Bytes(), []byte("after")) {
		t.Error("debug line missing after level change")
	}
}

func TestFromContextUsesSpanTraceID(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "json")
	defer Init("info", "json")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	Info(ctx, "job picked up")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["trace_id"] != traceID.String() {
		t.Errorf("trace_id = %v", rec["trace_id"])
	}
}
