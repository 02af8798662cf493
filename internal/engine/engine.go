// Package engine implements the conversational form-filling core: a
// per-session state machine that routes each turn through a graph of
// nodes, calls the LLM behind behavioral guards, and commits all
// resulting state atomically into a new session snapshot.
package engine

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"

	"formpilot/internal/domain/models/form"
	"formpilot/internal/domain/services/llm"
)

// Engine drives form-filling conversations. It is stateless across
// sessions and safe for concurrent use; per-session serialization is
// the caller's responsibility (one in-flight turn per session).
type Engine struct {
	provider llm.Provider
	logger   *slog.Logger
}

// New creates an engine on top of an LLM provider.
func New(provider llm.Provider, logger *slog.Logger) *Engine {
	return &Engine{
		provider: provider,
		logger:   logger,
	}
}

// NewSession parses a form definition and returns the initial session
// state. Fails when the definition is malformed.
func (e *Engine) NewSession(definition string) (*State, error) {
	def, err := form.ParseDefinition(definition)
	if err != nil {
		return nil, err
	}
	return NewState(def), nil
}

// Step runs one conversation turn. The input state is never mutated:
// the turn executes against a clone and the new snapshot is returned
// alongside the single outbound action. A context error (cancellation
// or timeout mid-LLM-call) returns the original state unchanged.
func (e *Engine) Step(ctx context.Context, st *State, userMessage string, toolResults []ToolResult) (action *Payload, next *State, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("turn panicked",
				"panic", r, "stack", string(debug.Stack()))
			action = messageAction(fallbackText)
			next = st
			err = nil
		}
	}()

	next = st.clone()
	next.prepareTurn(strings.TrimSpace(userMessage), toolResults)

	if err := e.run(ctx, next); err != nil {
		return nil, st, err
	}

	if next.action == nil {
		// Every branch should yield an action; degrade rather than crash.
		e.logger.Error("turn produced no action")
		next.action = messageAction(fallbackText)
	}
	return next.action, next, nil
}

// run selects the entry node for the turn and walks the graph edges.
func (e *Engine) run(ctx context.Context, st *State) error {
	switch e.route(st) {
	case "greeting":
		st.apply(greetingNode(st))
		return nil

	case "tool_handler":
		st.apply(toolHandlerNode(st))
		return e.converseAndFinalize(ctx, st)

	case "step_confirmation":
		st.apply(stepConfirmationNode(st))
		if st.skipConversationTurn {
			return nil
		}
		return e.converseAndFinalize(ctx, st)

	case "validation":
		st.apply(e.validationNode(st))
		return e.converseAndFinalize(ctx, st)

	case "extraction":
		u, err := e.extractionNode(ctx, st)
		if err != nil {
			return err
		}
		st.apply(u)
		if st.parsed != nil {
			st.apply(e.finalizeNode(st))
			return nil
		}
		return e.converseAndFinalize(ctx, st)

	default:
		return e.converseAndFinalize(ctx, st)
	}
}

// route picks the entry node from the session state and turn input.
// First match wins.
func (e *Engine) route(st *State) string {
	switch {
	case st.userMessage == "" && len(st.toolResults) == 0 && !st.InitialExtractionDone:
		// Covers both a brand-new session and a repeated empty-message
		// call before the first real turn; the greeting is idempotent.
		return "greeting"
	case len(st.toolResults) > 0:
		return "tool_handler"
	case st.AwaitingStepConfirmation && st.userMessage != "":
		return "step_confirmation"
	case st.PendingFieldID != "" && st.userMessage != "":
		return "validation"
	case !st.InitialExtractionDone:
		return "extraction"
	default:
		return "conversation"
	}
}

// converseAndFinalize runs the conversation node and, when the LLM
// produced a payload, the finalize node. An LLM failure already set
// the fallback action and ends the turn.
func (e *Engine) converseAndFinalize(ctx context.Context, st *State) error {
	u, err := e.conversationNode(ctx, st)
	if err != nil {
		return err
	}
	st.apply(u)
	if st.parsed == nil {
		return nil
	}
	st.apply(e.finalizeNode(st))
	return nil
}
