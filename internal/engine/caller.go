package engine

import (
	"context"
	"fmt"
	"strings"

	"formpilot/internal/domain/services/llm"
)

// maxJSONRetries bounds in-turn retries after the first attempt: four
// total calls per turn.
const maxJSONRetries = 3

// jsonRetryPrompt is the corrective message for non-JSON output. Small
// models need blunt instructions.
const jsonRetryPrompt = "WRONG. Your response was NOT valid JSON. " +
	"You MUST respond with ONLY a JSON object like: " +
	`{"action": "MESSAGE", "text": "hello"} ` +
	"NO explanations. NO markdown. NO plain text. ONLY JSON. Try again now."

// guardContext carries the session views the guards check payloads
// against.
type guardContext struct {
	answers map[string]interface{}

	// missingRequired holds the required field ids still unanswered and
	// visible at the start of the turn, in definition order.
	missingRequired []string

	extractionDone bool

	// allowAnsweredUpdate suspends the answered-field re-ask guard for
	// one turn, during an edit subflow.
	allowAnsweredUpdate bool

	// recentAskTexts holds the assistant's recent re-ask wordings; a new
	// ask repeating one of them verbatim is bounced for a rephrase.
	recentAskTexts []string

	// messageGuardTripped marks that the MESSAGE-during-filling guard
	// already fired this turn; it only retries once.
	messageGuardTripped bool
}

// callWithGuards runs the guarded retry loop: invoke the LLM, extract
// JSON, validate the payload shape, then apply the behavioral guards.
// Any failure appends a targeted corrective message to the scratch
// buffer and retries. Returns nil (without error) once the retry budget
// is exhausted; the caller degrades to a fallback MESSAGE. A context
// error aborts immediately.
func (e *Engine) callWithGuards(ctx context.Context, messages []llm.Message, gc guardContext) (*Payload, error) {
	for attempt := 0; attempt <= maxJSONRetries; attempt++ {
		e.logger.Info("calling LLM",
			"attempt", attempt+1,
			"max_attempts", maxJSONRetries+1,
			"messages", len(messages))

		content, err := e.provider.Invoke(ctx, messages)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Error("LLM call failed", "attempt", attempt+1, "error", err)
			continue
		}
		content = strings.TrimSpace(content)

		raw := ExtractJSON(content)
		if raw == nil {
			e.logger.Warn("LLM returned invalid JSON",
				"attempt", attempt+1, "content", truncate(content, 300))
			messages = append(messages, corrective(jsonRetryPrompt))
			continue
		}

		payload, retry := e.checkPayload(raw, &gc)
		if retry != "" {
			messages = append(messages, corrective(retry))
			continue
		}
		if payload == nil {
			messages = append(messages, corrective(jsonRetryPrompt))
			continue
		}

		e.logger.Info("LLM returned valid payload",
			"action", payload.Action, "intent", payload.Intent)
		return payload, nil
	}

	e.logger.Error("all LLM attempts failed", "attempts", maxJSONRetries+1)
	return nil, nil
}

// checkPayload validates shape and applies the behavioral guards in
// order. Returns (payload, "") to accept, (nil, corrective) to retry,
// or (nil, "") for unrecoverable gibberish handled by the generic
// retry prompt.
func (e *Engine) checkPayload(raw map[string]interface{}, gc *guardContext) (*Payload, string) {
	// Unknown action strings: coerce to MESSAGE when there is text to
	// show, otherwise it is gibberish.
	action, _ := raw["action"].(string)
	intent, _ := raw["intent"].(string)
	if action != "" && !validActions[action] && intent == "" {
		e.logger.Warn("LLM returned unknown action type", "action", action)
		text := rawString(raw, "text")
		if text == "" {
			text = rawString(raw, "message")
		}
		if text != "" {
			e.logger.Info("converted unknown action to MESSAGE")
			return &Payload{Action: ActionMessage, Text: text}, ""
		}
		return nil, ""
	}

	payload, reason := ValidatePayload(raw)
	if payload == nil {
		e.logger.Warn("LLM payload failed validation", "reason", reason)
		return nil, fmt.Sprintf(
			"WRONG. %s Respond with ONLY a valid JSON action object.", reason)
	}

	// Re-ask of an answered field. Suspended during edit subflows where
	// re-asking is exactly what we want.
	if payload.IsAsk() && payload.FieldID != "" && !gc.allowAnsweredUpdate {
		if _, answered := gc.answers[payload.FieldID]; answered {
			e.logger.Warn("LLM re-asked answered field", "field_id", payload.FieldID)
			return nil, fmt.Sprintf(
				"WRONG. The field '%s' is already answered. "+
					"Already answered fields: [%s]. "+
					"Ask the NEXT unanswered field instead.",
				payload.FieldID, answeredList(gc.answers))
		}
	}

	// MESSAGE during active form filling: the model is asking a question
	// without the ASK_ format. Retried once; the marker in the scratch
	// buffer prevents a loop.
	if payload.Action == ActionMessage && gc.extractionDone &&
		len(gc.answers) > 0 && payload.FieldID == "" {
		if !gc.messageGuardTripped {
			e.logger.Warn("LLM returned MESSAGE during active form filling")
			gc.messageGuardTripped = true
			return nil, fmt.Sprintf(
				"WRONG format. You returned MESSAGE but you should be "+
					"asking for the next unanswered form field. "+
					"Already answered: [%s]. "+
					"Find the next unanswered field and use the correct "+
					"format: ASK_TEXT, ASK_DATE, ASK_DROPDOWN, etc. "+
					"with a field_id. Do NOT use MESSAGE to ask questions.",
				answeredList(gc.answers))
		}
	}

	// Empty options: the model skipped the TOOL_CALL that fetches them.
	if (payload.Action == ActionAskDropdown || payload.Action == ActionAskCheckbox) &&
		len(payload.Options) == 0 {
		e.logger.Warn("LLM returned ask with empty options",
			"action", payload.Action, "field_id", payload.FieldID)
		return nil, "WRONG. You returned ASK_DROPDOWN with empty options. " +
			"You do NOT have the options yet. " +
			"You MUST return a TOOL_CALL first to fetch the data. " +
			"Check the form: which tool provides data for this field? " +
			"Return a TOOL_CALL for that tool NOW."
	}

	// Premature FORM_COMPLETE.
	if payload.Action == ActionFormComplete {
		missing := gc.missingRequired
		if len(missing) > 0 {
			e.logger.Warn("LLM returned premature FORM_COMPLETE",
				"missing", missing)
			return nil, fmt.Sprintf(
				"WRONG. You returned FORM_COMPLETE but these required fields "+
					"are still unanswered: [%s]. "+
					"Ask the NEXT missing field: '%s'. "+
					"Check the Field Summary Table for how to ask it.",
				strings.Join(missing, ", "), missing[0])
		}
	}

	// Verbatim re-ask: a rejected answer must be re-asked with fresh
	// wording, not a copy of the last attempt.
	if payload.IsAsk() {
		text := payload.DisplayText()
		for _, prev := range gc.recentAskTexts {
			if text != "" && text == prev {
				e.logger.Warn("LLM repeated a re-ask verbatim", "field_id", payload.FieldID)
				return nil, fmt.Sprintf(
					"WRONG. You repeated the exact same question for '%s'. "+
						"Re-ask the field with DIFFERENT wording so the user "+
						"understands what to fix.",
					payload.FieldID)
			}
		}
	}

	return payload, ""
}

func corrective(text string) llm.Message {
	return llm.Message{Role: llm.RoleUser, Content: text}
}

func answeredList(answers map[string]interface{}) string {
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	return strings.Join(ids, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
