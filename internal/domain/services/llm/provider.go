// Package llm defines the provider-agnostic chat completion interface
// the engine calls into. Concrete providers live in internal/service/llm.
package llm

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a chat completion request.
type Message struct {
	Role    Role
	Content string
}

// Provider produces a single completion for a message transcript.
// Implementations must honor context cancellation.
type Provider interface {
	// Invoke sends the messages and returns the raw assistant text.
	Invoke(ctx context.Context, messages []Message) (string, error)

	// Name returns a short identifier for logging.
	Name() string
}
