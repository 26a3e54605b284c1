// Package service 提供跨层共享的调用上下文
package service

import (
	"context"
	"strings"
)

const unknown = "unknown"

type llmCallKey struct{}

// LLMCall 一次模型调用的归属信息，用于指标与追踪标签
type LLMCall struct {
	Workflow string
	Provider string
}

// WithWorkflowProvider 在 context 中记录调用归属，空值沿用已有信息
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	call := LLMCallFromContext(ctx)
	if w := strings.TrimSpace(workflow); w != "" {
		call.Workflow = w
	}
	if p := strings.TrimSpace(provider); p != "" {
		call.Provider = p
	}
	return context.WithValue(ctx, llmCallKey{}, call)
}

// LLMCallFromContext 读取调用归属，缺省字段为 unknown
func LLMCallFromContext(ctx context.Context) LLMCall {
	call, _ := ctx.Value(llmCallKey{}).(LLMCall)
	if call.Workflow == "" {
		call.Workflow = unknown
	}
	if call.Provider == "" {
		call.Provider = unknown
	}
	return call
}
