// Package openaicompat implements the LLM provider interface against any
// OpenAI-compatible chat completions endpoint (OpenAI itself, vLLM,
// Ollama, LM Studio, and most gateway proxies).
package openaicompat

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	domainllm "formpilot/internal/domain/services/llm"
)

// Config holds the connection settings for the endpoint.
type Config struct {
	// Endpoint is the base URL. A trailing /chat/completions path is
	// stripped since the client library appends it.
	Endpoint string
	APIKey   string
	Model    string
	// Timeout bounds a single completion call.
	Timeout   time.Duration
	MaxTokens int
}

// Provider calls an OpenAI-compatible chat completions API.
type Provider struct {
	client *openai.Client
	model  string
	// maxTokens caps the completion length; the structured payloads the
	// engine expects are short, so the cap is intentionally low.
	maxTokens int
	timeout   time.Duration
}

// NewProvider creates a provider for the configured endpoint.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("LLM_API_ENDPOINT environment variable not set")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("LLM_MODEL_NAME environment variable not set")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = normalizeBaseURL(cfg.Endpoint)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &Provider{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   timeout,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai-compatible"
}

// Invoke sends the transcript and returns the assistant text.
// Temperature is pinned to zero: the engine needs deterministic,
// machine-parseable payloads, not creative variation.
func (p *Provider) Invoke(ctx context.Context, messages []domainllm.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: 0,
		MaxTokens:   p.maxTokens,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []domainllm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

// normalizeBaseURL strips a /chat/completions suffix so users can paste
// the full completions URL from their provider's docs.
func normalizeBaseURL(endpoint string) string {
	trimmed := strings.TrimRight(endpoint, "/")
	trimmed = strings.TrimSuffix(trimmed, "/chat/completions")
	return trimmed
}
