package llm

import (
	"context"
	"fmt"
	"sync"

	"z-scenario-gen/internal/config"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// EinoFactory 管理多个 Eino ChatModel 客户端实例
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex

	// newModel 便于测试替换
	newModel func(ctx context.Context, cfg config.ProviderConfig) (model.BaseChatModel, error)
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{
		config:   &cfg.LLM,
		models:   make(map[string]model.BaseChatModel),
		newModel: newOpenAIChatModel,
	}
}

// Get 获取指定名称的 ChatModel，如果未指定则返回默认客户端
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = f.config.DefaultProvider
	}

	f.mu.RLock()
	m, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	// 惰性加载
	f.mu.Lock()
	defer f.mu.Unlock()

	// 再次检查防止竞态
	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	chatModel, err := f.newModel(ctx, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	f.models[name] = chatModel
	return chatModel, nil
}

// ForRole 按协作者角色解析 ChatModel
func (f *EinoFactory) ForRole(ctx context.Context, role string) (model.BaseChatModel, string, error) {
	name := f.config.ProviderFor("role", role)
	m, err := f.Get(ctx, name)
	return m, name, err
}

// ForTier 按子角色能力档位解析 ChatModel
func (f *EinoFactory) ForTier(ctx context.Context, tier string) (model.BaseChatModel, string, error) {
	name := f.config.ProviderFor("tier", tier)
	m, err := f.Get(ctx, name)
	return m, name, err
}

// Default 返回默认 ChatModel
func (f *EinoFactory) Default(ctx context.Context) (model.BaseChatModel, error) {
	return f.Get(ctx, "")
}

// newOpenAIChatModel 使用 Eino 的 OpenAI 兼容适配器
func newOpenAIChatModel(ctx context.Context, p config.ProviderConfig) (model.BaseChatModel, error) {
	cfg := &openai.ChatModelConfig{
		APIKey:      p.APIKey,
		BaseURL:     p.BaseURL,
		Model:       p.Model,
		Temperature: ptrFloat32(float32(p.Temperature)),
		Timeout:     p.Timeout,
	}
	if p.MaxTokens > 0 {
		maxTokens := p.MaxTokens
		cfg.MaxTokens = &maxTokens
	}
	return openai.NewChatModel(ctx, cfg)
}

func ptrFloat32(f float32) *float32 {
	return &f
}
