// Package llm 提供代码生成模型客户端
package llm

import (
	"fmt"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/internal/domain/codegen"
)

// NewCodeGenerator 按 generation.provider 选择提供商。
// anthropic 使用 generation 段的凭证注册到工厂，其余名称从 llm.providers 中查找。
func NewCodeGenerator(gen config.GenerationConfig, factory *EinoFactory) (codegen.CodeGenerator, error) {
	if factory == nil {
		factory = NewEinoFactory(config.LLMConfig{})
	}
	switch gen.Provider {
	case "", ProviderAnthropic:
		factory.Register(ProviderAnthropic, anthropicProvider(gen), newClaudeChatModel)
		return NewEinoGenerator(factory, ProviderAnthropic, gen.Model), nil
	default:
		if !factory.Has(gen.Provider) {
			return nil, fmt.Errorf("generation provider %q is not configured", gen.Provider)
		}
		return NewEinoGenerator(factory, gen.Provider, factory.ModelName(gen.Provider)), nil
	}
}
