package service

import (
	"context"
	"testing"
)

func TestLLMCallContext(t *testing.T) {
	ctx := context.Background()
	if got := LLMCallFromContext(ctx); got != (LLMCall{Workflow: "unknown", Provider: "unknown"}) {
		t.Fatalf("empty context = %+v", got)
	}

	ctx = WithWorkflowProvider(ctx, "codegen", "")
	ctx = WithWorkflowProvider(ctx, " ", "openai")
	if got := LLMCallFromContext(ctx); got != (LLMCall{Workflow: "codegen", Provider: "openai"}) {
		t.Fatalf("merged context = %+v", got)
	}
}
