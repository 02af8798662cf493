// Package scripted implements a mock LLM provider that replays a queue
// of canned responses. Used for tests and for development without an
// API key.
package scripted

import (
	"context"
	"sync"

	domainllm "formpilot/internal/domain/services/llm"
)

// Provider replays queued responses in FIFO order. When the queue is
// empty it returns Fallback, which defaults to an empty string.
type Provider struct {
	mu sync.Mutex

	responses []string
	// Fallback is returned once the queue runs dry.
	Fallback string

	// Calls records every transcript Invoke received, for assertions.
	Calls [][]domainllm.Message
}

// NewProvider creates a provider preloaded with the given responses.
func NewProvider(responses ...string) *Provider {
	return &Provider{responses: responses}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "scripted"
}

// Enqueue appends responses to the replay queue.
func (p *Provider) Enqueue(responses ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = append(p.responses, responses...)
}

// Invoke records the transcript and pops the next canned response.
func (p *Provider) Invoke(ctx context.Context, messages []domainllm.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	copied := make([]domainllm.Message, len(messages))
	copy(copied, messages)
	p.Calls = append(p.Calls, copied)

	if len(p.responses) == 0 {
		return p.Fallback, nil
	}
	next := p.responses[0]
	p.responses = p.responses[1:]
	return next, nil
}

// CallCount returns how many times Invoke has been called.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
