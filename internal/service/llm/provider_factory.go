// Package llm wires concrete LLM providers from configuration.
package llm

import (
	"fmt"
	"time"

	"formpilot/internal/config"
	domainllm "formpilot/internal/domain/services/llm"
	"formpilot/internal/service/llm/providers/openaicompat"
	"formpilot/internal/service/llm/providers/scripted"
)

// NewProvider returns the provider selected by LLM_PROVIDER.
//
// Supported providers:
//   - "openai-compatible" - any OpenAI-compatible chat completions API
//     (OpenAI, vLLM, Ollama, LM Studio, gateway proxies)
//   - "scripted" - mock provider replaying canned responses, no API key
func NewProvider(cfg *config.Config) (domainllm.Provider, error) {
	switch cfg.LLMProvider {
	case "openai-compatible", "openai":
		return openaicompat.NewProvider(openaicompat.Config{
			Endpoint:  cfg.LLMAPIEndpoint,
			APIKey:    cfg.LLMAPIKey,
			Model:     cfg.LLMModelName,
			Timeout:   time.Duration(cfg.LLMTimeoutSecs) * time.Second,
			MaxTokens: cfg.LLMMaxTokens,
		})

	case "scripted":
		return scripted.NewProvider(), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.LLMProvider)
	}
}
