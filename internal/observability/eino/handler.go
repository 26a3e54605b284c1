package eino

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"screen-dev-assistant/internal/domain/service"
	"screen-dev-assistant/pkg/metrics"
)

// newChatModelCallbackHandler 为每次 ChatModel 调用开启 span，recordTokens 为真时累计 token
// 调用次数与耗时由生成器自身上报
func newChatModelCallbackHandler(tr trace.Tracer, recordTokens bool) *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			call := service.LLMCallFromContext(ctx)
			attrs := []attribute.KeyValue{
				attribute.String("eino.workflow", call.Workflow),
				attribute.String("llm.provider", call.Provider),
				attribute.String("llm.model", modelNameFromInput(input)),
			}
			if info != nil {
				attrs = append(attrs,
					attribute.String("eino.node_name", info.Name),
					attribute.String("eino.type", info.Type),
				)
			}
			ctx, _ = tr.Start(ctx, "llm.generate", trace.WithAttributes(attrs...))
			return ctx
		},

		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			call := service.LLMCallFromContext(ctx)
			modelName := modelNameFromOutput(output)
			span := trace.SpanFromContext(ctx)

			if output != nil && output.TokenUsage != nil {
				prompt := output.TokenUsage.PromptTokens
				completion := output.TokenUsage.CompletionTokens
				if recordTokens {
					metrics.LLMTokensUsed.WithLabelValues(call.Provider, modelName, "prompt").Add(float64(prompt))
					metrics.LLMTokensUsed.WithLabelValues(call.Provider, modelName, "completion").Add(float64(completion))
				}
				span.SetAttributes(
					attribute.Int("llm.prompt_tokens", prompt),
					attribute.Int("llm.completion_tokens", completion),
				)
			}
			span.End()
			return ctx
		},

		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return ctx
		},
	}
}

func modelNameFromInput(in *model.CallbackInput) string {
	if in == nil || in.Config == nil {
		return ""
	}
	return in.Config.Model
}

func modelNameFromOutput(out *model.CallbackOutput) string {
	if out == nil || out.Config == nil {
		return ""
	}
	return out.Config.Model
}
