package handler

import (
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"formpilot/internal/domain"
	"formpilot/internal/engine"
	"formpilot/internal/httputil"
	"formpilot/internal/session"
)

// ChatHandler serves the conversational form-filling endpoints.
type ChatHandler struct {
	engine   *engine.Engine
	sessions *session.Store
	logger   *slog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(eng *engine.Engine, sessions *session.Store, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		engine:   eng,
		sessions: sessions,
		logger:   logger,
	}
}

// ChatRequest is the body for POST /chat. A missing conversation_id
// starts a new session from the form definition.
type ChatRequest struct {
	FormDefinition string              `json:"form_context_md"`
	UserMessage    string              `json:"user_message"`
	ConversationID string              `json:"conversation_id,omitempty"`
	ToolResults    []engine.ToolResult `json:"tool_results,omitempty"`
}

// Validate checks the request shape.
func (r ChatRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FormDefinition, validation.Required),
	)
}

// ChatResponse is the body for POST /chat.
type ChatResponse struct {
	Action         *engine.Payload        `json:"action"`
	ConversationID string                 `json:"conversation_id"`
	Answers        map[string]interface{} `json:"answers"`
}

// Chat processes one conversation turn.
// POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.resolveSession(&req)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}

	// One in-flight turn per session; a concurrent turn is a conflict,
	// not a queue.
	if err := sess.BeginTurn(); err != nil {
		httputil.RespondError(w, http.StatusConflict, err.Error())
		return
	}
	defer sess.EndTurn()

	action, next, err := h.engine.Step(r.Context(), sess.State, req.UserMessage, req.ToolResults)
	if err != nil {
		h.logger.Error("turn failed", "session_id", sess.ID, "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Error processing message")
		return
	}
	sess.State = next

	httputil.RespondJSON(w, http.StatusOK, ChatResponse{
		Action:         action,
		ConversationID: sess.ID,
		Answers:        next.Answers,
	})
}

// resolveSession resumes an existing session or creates a fresh one
// from the request's form definition. An expired or unknown id falls
// back to a new session rather than an error, so long-idle clients
// restart cleanly.
func (h *ChatHandler) resolveSession(req *ChatRequest) (*session.Session, error) {
	if req.ConversationID != "" {
		sess, err := h.sessions.Get(req.ConversationID)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		h.logger.Info("conversation not found, starting fresh",
			"conversation_id", req.ConversationID)
	}

	state, err := h.engine.NewSession(req.FormDefinition)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	return h.sessions.Create(state), nil
}

// ResetRequest is the body for POST /sessions/reset.
type ResetRequest struct {
	ConversationID string `json:"conversation_id"`
}

// Validate checks the request shape.
func (r ResetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ConversationID, validation.Required),
	)
}

// Reset deletes a conversation session.
// POST /sessions/reset
func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, err := h.sessions.Get(req.ConversationID)
	deleted := err == nil
	h.sessions.Delete(req.ConversationID)

	message := "Session reset"
	if !deleted {
		message = "Session not found"
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": deleted,
		"message": message,
	})
}

// Health reports service liveness and the live session count.
// GET /health
func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"active_sessions": h.sessions.Len(),
	})
}
