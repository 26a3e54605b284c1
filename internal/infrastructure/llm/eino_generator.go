package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/domain/service"
	"screen-dev-assistant/pkg/metrics"
)

// ChatModelProvider 按名称返回 eino ChatModel 及其配置
type ChatModelProvider interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
	Provider(name string) (config.ProviderConfig, bool)
}

// EinoGenerator 通过 eino ChatModel 生成代码，Anthropic 与 OpenAI 兼容提供商共用
type EinoGenerator struct {
	models    ChatModelProvider
	provider  string
	modelName string
}

// NewEinoGenerator 创建 eino 生成器
func NewEinoGenerator(models ChatModelProvider, provider, modelName string) *EinoGenerator {
	return &EinoGenerator{models: models, provider: provider, modelName: modelName}
}

// Generate 发送 system + 多模态 user 消息，并抽取代码。
// 未配置 API Key 时在任何网络调用之前失败。
func (g *EinoGenerator) Generate(ctx context.Context, req *codegen.GenerationRequest) (*codegen.Completion, error) {
	ctx = withAttempt(service.WithWorkflowProvider(ctx, "codegen", g.provider))

	if cfg, ok := g.models.Provider(g.provider); ok && strings.TrimSpace(cfg.APIKey) == "" {
		err := codegen.AuthenticationError(0, "generation api key is not configured")
		metrics.LLMCallTotal.WithLabelValues(g.provider, g.modelName, string(codegen.KindAuthentication)).Inc()
		return nil, err
	}

	chatModel, err := g.models.Get(ctx, g.provider)
	if err != nil {
		return nil, codegen.AuthenticationError(0, err.Error())
	}

	started := time.Now()
	out, err := chatModel.Generate(ctx, toEinoMessages(req))
	if err != nil {
		classified := classifyModelError(err)
		metrics.LLMCallTotal.WithLabelValues(g.provider, g.modelName, string(codegen.KindOf(classified))).Inc()
		return nil, classified
	}
	metrics.LLMCallTotal.WithLabelValues(g.provider, g.modelName, "success").Inc()
	metrics.LLMCallDuration.WithLabelValues(g.provider, g.modelName).Observe(time.Since(started).Seconds())

	if out == nil || strings.TrimSpace(out.Content) == "" {
		return nil, codegen.MalformedResponseError("model returned empty content")
	}

	completion := &codegen.Completion{
		Code:     ExtractCode(out.Content),
		Text:     out.Content,
		Provider: g.provider,
		Model:    g.modelName,
	}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		completion.PromptTokens = out.ResponseMeta.Usage.PromptTokens
		completion.CompletionTokens = out.ResponseMeta.Usage.CompletionTokens
	}
	return completion, nil
}

// toEinoMessages 文本块与图片块合并为单条多模态 user 消息
func toEinoMessages(req *codegen.GenerationRequest) []*schema.Message {
	parts := make([]schema.ChatMessagePart, 0, len(req.Blocks))
	for _, b := range req.Blocks {
		switch b.Type {
		case codegen.BlockText:
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeText,
				Text: b.Text,
			})
		case codegen.BlockImage:
			if b.Image == nil {
				continue
			}
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:      fmt.Sprintf("data:%s;base64,%s", b.Image.MediaType, b.Image.Data),
					MIMEType: b.Image.MediaType,
				},
			})
		}
	}

	return []*schema.Message{
		schema.SystemMessage(req.SystemInstruction),
		{Role: schema.User, MultiContent: parts},
	}
}

// classifyModelError 优先使用 SDK 错误中的状态码，其余适配器只能按错误文本归类
func classifyModelError(err error) error {
	var ce *codegen.Error
	if errors.As(err, &ce) {
		return err
	}
	if classified, ok := classifyAnthropicError(err); ok {
		return classified
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"),
		strings.Contains(msg, "unauthorized"), strings.Contains(msg, "api key"), strings.Contains(msg, "api_key"):
		return codegen.AuthenticationError(0, err.Error())
	default:
		return codegen.TransportError(codegen.StageGenerate, 0, "chat model call failed", err)
	}
}

var _ codegen.CodeGenerator = (*EinoGenerator)(nil)
