package llm

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"screen-dev-assistant/internal/config"
)

// ChatModelBuilder 根据提供商配置构造 eino ChatModel
type ChatModelBuilder func(ctx context.Context, name string, cfg config.ProviderConfig) (model.BaseChatModel, error)

// EinoFactory 惰性构造并缓存各提供商的 ChatModel
type EinoFactory struct {
	defaultProvider string
	providers       map[string]config.ProviderConfig
	build           ChatModelBuilder
	builders        map[string]ChatModelBuilder
	models          map[string]model.BaseChatModel
	mu              sync.RWMutex
}

// NewEinoFactory 创建工厂，默认使用 OpenAI 兼容适配器
func NewEinoFactory(cfg config.LLMConfig) *EinoFactory {
	return NewEinoFactoryWithBuilder(cfg, newOpenAIChatModel)
}

// NewEinoFactoryWithBuilder 创建使用自定义构造函数的工厂
func NewEinoFactoryWithBuilder(cfg config.LLMConfig, build ChatModelBuilder) *EinoFactory {
	providers := maps.Clone(cfg.Providers)
	if providers == nil {
		providers = make(map[string]config.ProviderConfig)
	}
	return &EinoFactory{
		defaultProvider: cfg.DefaultProvider,
		providers:       providers,
		build:           build,
		builders:        make(map[string]ChatModelBuilder),
		models:          make(map[string]model.BaseChatModel),
	}
}

// Register 以专用构造函数注册提供商，覆盖同名配置并丢弃已缓存的实例
func (f *EinoFactory) Register(name string, cfg config.ProviderConfig, build ChatModelBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[name] = cfg
	f.builders[name] = build
	delete(f.models, name)
}

// Has 判断是否配置了指定提供商
func (f *EinoFactory) Has(name string) bool {
	_, ok := f.Provider(name)
	return ok
}

// Provider 返回提供商配置，名称为空时使用默认提供商
func (f *EinoFactory) Provider(name string) (config.ProviderConfig, bool) {
	if name == "" {
		name = f.defaultProvider
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	cfg, ok := f.providers[name]
	return cfg, ok
}

// ModelName 返回提供商配置的模型名
func (f *EinoFactory) ModelName(name string) string {
	cfg, _ := f.Provider(name)
	return cfg.Model
}

// Get 获取指定名称的 ChatModel，名称为空时使用默认提供商
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = f.defaultProvider
	}

	f.mu.RLock()
	m, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}
	build := f.build
	if b, ok := f.builders[name]; ok {
		build = b
	}
	chatModel, err := build(ctx, name, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	f.models[name] = chatModel
	return chatModel, nil
}

func newOpenAIChatModel(ctx context.Context, _ string, cfg config.ProviderConfig) (model.BaseChatModel, error) {
	maxTokens := cfg.MaxTokens
	temperature := float32(cfg.Temperature)
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		Timeout:     cfg.Timeout,
	})
}
