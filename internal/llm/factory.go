package llm

import (
	"fmt"
	"strings"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("llm backend requires model.llm.provider (supported: openai, anthropic, ollama)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the service configuration to llm.Config
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	cfg := DefaultConfig()
	cfg.Provider = llmCfg.Provider
	cfg.Model = llmCfg.Model
	cfg.APIKey = llmCfg.APIKey
	cfg.BaseURL = llmCfg.BaseURL
	if llmCfg.Timeout > 0 {
		cfg.Timeout = llmCfg.Timeout
	}
	if llmCfg.MaxTokens > 0 {
		cfg.MaxTokens = llmCfg.MaxTokens
	}
	cfg.UserAgent = httpCfg.UserAgent
	cfg.HTTPProxy = httpCfg.HTTPProxy
	cfg.HTTPSProxy = httpCfg.HTTPSProxy
	cfg.NoProxy = httpCfg.NoProxy
	return cfg
}
