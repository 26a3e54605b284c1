package messaging

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/pkg/logger"
)

func TestCalculateBackoff(t *testing.T) {
	b := BackoffConfig{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2}
	cases := map[int]time.Duration{
		0: time.Second,
		1: 2 * time.Second,
		3: 8 * time.Second,
		4: 10 * time.Second,
		9: 10 * time.Second,
	}
	for retry, want := range cases {
		if got := b.CalculateBackoff(retry); got != want {
			t.Errorf("CalculateBackoff(%d) = %v, want %v", retry, got, want)
		}
	}
}

func TestBackoffFromConfig(t *testing.T) {
	got := BackoffFromConfig(config.BackoffConfig{Initial: 500 * time.Millisecond})
	if got.Initial != 500*time.Millisecond {
		t.Errorf("Initial = %v", got.Initial)
	}
	if got.Max != time.Minute || got.Multiplier != 2 {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestCodegenMessagePayload(t *testing.T) {
	msg, err := NewMessage("job-1", MessageTypeCodegen, "screen-1", &CodegenJobMessage{JobID: "job-1", ScreenID: "screen-1"})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	msg.SetMetadata("request_id", "req-9")

	var payload CodegenJobMessage
	if err := msg.UnmarshalPayload(&payload); err != nil {
		t.Fatalf("UnmarshalPayload: %v", err)
	}
	if payload.JobID != "job-1" || payload.ScreenID != "screen-1" {
		t.Errorf("payload = %+v", payload)
	}
	if msg.GetMetadata("request_id") != "req-9" {
		t.Errorf("metadata lost")
	}
	if msg.GetMetadata("missing") != "" {
		t.Errorf("missing key should be empty")
	}
}

func TestGroupName(t *testing.T) {
	if got := GroupName("screen-assist", ConsumerGroupCodegenWorker); got != "screen-assist:cg-codegen-worker" {
		t.Errorf("GroupName = %q", got)
	}
	if got := GroupName("", ConsumerGroupCodegenWorker); got != ConsumerGroupCodegenWorker {
		t.Errorf("GroupName without prefix = %q", got)
	}
	if StreamCodegen.DLQStream() != "dlq:stream:screen:codegen" {
		t.Errorf("DLQStream = %q", StreamCodegen.DLQStream())
	}
}

func TestPermanent(t *testing.T) {
	base := errors.New("bad payload")
	err := fmt.Errorf("handle: %w", Permanent(base))
	if !IsPermanent(err) {
		t.Fatal("wrapped permanent error not detected")
	}
	if !errors.Is(err, base) {
		t.Error("permanent error should unwrap to its cause")
	}
	if IsPermanent(base) {
		t.Error("plain error reported as permanent")
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestInvokeRecoversPanic(t *testing.T) {
	err := invoke(context.Background(), func(context.Context, *Message) error {
		panic("boom")
	}, &Message{ID: "m1"})
	if err == nil {
		t.Fatal("expected error from panicking handler")
	}
	if IsPermanent(err) {
		t.Error("panic should stay retryable")
	}
}

func TestMessageContextRestoresIdentifiers(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	msg, err := NewMessage("job-1", MessageTypeCodegen, "scr-1", &CodegenJobMessage{JobID: "job-1", ScreenID: "scr-1"})
	if err != nil {
		t.Fatal(err)
	}
	msg.SetMetadata(metaRequestID, "req-9")
	msg.SetMetadata("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	ctx := messageContext(context.Background(), msg)
	if got, _ := ctx.Value(logger.ScreenIDKey).(string); got != "scr-1" {
		t.Errorf("screen id = %q", got)
	}
	if got, _ := ctx.Value(logger.RequestIDKey).(string); got != "req-9" {
		t.Errorf("request id = %q", got)
	}
	sc := trace.SpanContextFromContext(ctx)
	if got := sc.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace id = %q", got)
	}
	if !sc.IsRemote() {
		t.Error("extracted span context should be remote")
	}
}
