package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"
	"github.com/tidwall/gjson"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/internal/domain/codegen"
)

// ProviderAnthropic Messages API，由 eino claude 适配器承载
const ProviderAnthropic = "anthropic"

const (
	defaultAnthropicMaxTokens = 4096
	messagesPath              = "/v1/messages"
)

// anthropicProvider 将 generation 配置转换为 eino 提供商配置。
// generation.endpoint 是完整的 Messages 地址，SDK 需要的是去掉 /v1/messages 的基础地址。
func anthropicProvider(gen config.GenerationConfig) config.ProviderConfig {
	maxTokens := gen.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return config.ProviderConfig{
		APIKey:    gen.APIKey,
		BaseURL:   strings.TrimSuffix(strings.TrimRight(gen.Endpoint, "/"), messagesPath),
		Model:     gen.Model,
		MaxTokens: maxTokens,
		Timeout:   gen.Timeout,
	}
}

func newClaudeChatModel(ctx context.Context, _ string, cfg config.ProviderConfig) (model.BaseChatModel, error) {
	claudeCfg := &claude.Config{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		HTTPClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: singleAttempt{next: http.DefaultTransport},
		},
	}
	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		claudeCfg.BaseURL = &baseURL
	}
	return claude.NewChatModel(ctx, claudeCfg)
}

type attemptKey struct{}

// attempt 记录一次生成调用中首个传输错误
type attempt struct{ err error }

func withAttempt(ctx context.Context) context.Context {
	return context.WithValue(ctx, attemptKey{}, &attempt{})
}

// singleAttempt 关闭 SDK 的自动重试：响应一律带 x-should-retry: false，
// 连接失败后的重发直接返回首次的错误，不再发出请求。
type singleAttempt struct {
	next http.RoundTripper
}

func (t singleAttempt) RoundTrip(req *http.Request) (*http.Response, error) {
	a, _ := req.Context().Value(attemptKey{}).(*attempt)
	if a != nil && a.err != nil {
		return nil, a.err
	}
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		if a != nil {
			a.err = err
		}
		return nil, err
	}
	resp.Header.Set("x-should-retry", "false")
	return resp, nil
}

// classifyAnthropicError 按 SDK 错误携带的状态码归类，401/403 为鉴权失败
func classifyAnthropicError(err error) (error, bool) {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return nil, false
	}
	msg := gjson.Get(apiErr.RawJSON(), "error.message").String()
	if msg == "" {
		msg = http.StatusText(apiErr.StatusCode)
	}
	if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
		return codegen.AuthenticationError(apiErr.StatusCode, msg), true
	}
	return codegen.TransportError(codegen.StageGenerate, apiErr.StatusCode, msg, nil), true
}
