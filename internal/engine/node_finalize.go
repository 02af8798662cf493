package engine

import (
	"fmt"
	"strings"
)

// finalizeNode post-processes a validated LLM payload into the
// outbound action and the next turn's tracking state: resolves any
// held text answer, commits explicit values, records the new pending
// field or tool, fills FORM_COMPLETE data, appends the assistant
// message, and applies the step checkpoint override.
func (e *Engine) finalizeNode(st *State) update {
	parsed := st.parsed
	if parsed == nil {
		// Routing never sends us here without a payload.
		return update{}
	}

	u := update{}
	answersUpdate := make(map[string]interface{})

	// Resolve the held text answer: an ASK_ for the same field is a
	// rejection, anything else is acceptance.
	if st.PendingTextValue != "" && st.PendingTextFieldID != "" {
		if parsed.IsAsk() && parsed.FieldID == st.PendingTextFieldID {
			e.logger.Info("LLM rejected text answer, discarding",
				"field_id", st.PendingTextFieldID)
		} else {
			answersUpdate[st.PendingTextFieldID] = st.PendingTextValue
			e.logger.Info("LLM accepted text answer",
				"field_id", st.PendingTextFieldID,
				"value", truncate(st.PendingTextValue, 100))
		}
		u.pendingTextValue = strPtr("")
		u.pendingTextFieldID = strPtr("")
	}

	// Explicit single-field commit from the payload. Ids the form does
	// not define are dropped, never stored.
	if parsed.FieldID != "" && parsed.Value != nil {
		if st.Definition.HasField(parsed.FieldID) {
			answersUpdate[parsed.FieldID] = parsed.Value
		} else {
			e.logger.Warn("dropping value for unknown field", "field_id", parsed.FieldID)
		}
	}

	// Track the new pending field or tool. An ask for an id the form
	// does not define is never made pending.
	switch {
	case parsed.IsAsk() && parsed.FieldID != "" && st.Definition.HasField(parsed.FieldID):
		u.pendingFieldID = strPtr(parsed.FieldID)
		u.pendingActionType = strPtr(parsed.Action)
		u.pendingToolName = strPtr("")
		e.logger.Info("now asking field",
			"field_id", parsed.FieldID, "action_type", parsed.Action)
	case parsed.Action == ActionToolCall:
		u.pendingToolName = strPtr(parsed.ToolName)
		u.pendingFieldID = strPtr("")
		u.pendingActionType = strPtr("")
		e.logger.Info("pending tool call", "tool_name", parsed.ToolName)
	default:
		u.pendingFieldID = strPtr("")
		u.pendingActionType = strPtr("")
		u.pendingToolName = strPtr("")
	}

	// FORM_COMPLETE always carries the full answer set. Keys outside the
	// form are dropped here too.
	if parsed.Action == ActionFormComplete {
		for k, v := range parsed.Data {
			if !st.Definition.HasField(k) {
				e.logger.Warn("dropping unknown field from completion data", "field_id", k)
				continue
			}
			answersUpdate[k] = v
		}
		merged := copyAnswers(st.Answers)
		for k, v := range answersUpdate {
			merged[k] = v
		}
		parsed.Data = merged
	}

	if msg := parsed.DisplayText(); msg != "" {
		u.history = append(u.history, Entry{Role: RoleAssistant, Content: msg})
	}

	u.action = parsed
	if len(answersUpdate) > 0 {
		u.answers = answersUpdate
	}

	// Step checkpoint: once every required field of the current step is
	// answered on a multi-step form, override the outbound action with
	// a summary and wait for confirmation. Applied after the LLM picks
	// its action because that action may already target the next step.
	e.applyStepCheckpoint(st, &u, answersUpdate)

	return u
}

func (e *Engine) applyStepCheckpoint(st *State, u *update, answersUpdate map[string]interface{}) {
	if st.MaxStep <= 1 || st.CurrentStep >= st.MaxStep || st.StepCompleted(st.CurrentStep) {
		return
	}
	if st.AwaitingStepConfirmation {
		return
	}

	stepFields := st.RequiredByStep[st.CurrentStep]
	if len(stepFields) == 0 {
		return
	}
	merged := copyAnswers(st.Answers)
	for k, v := range answersUpdate {
		merged[k] = v
	}
	for _, fid := range stepFields {
		if _, ok := merged[fid]; !ok {
			return
		}
	}

	summary := stepSummary(st, stepFields, merged)
	e.logger.Info("step complete, requesting confirmation", "step", st.CurrentStep)

	u.action = messageAction(summary)
	u.awaitingStepConfirmation = boolPtr(true)
	u.pendingFieldID = strPtr("")
	u.pendingActionType = strPtr("")
	// The overridden action's text was never shown; the summary replaces
	// it as this turn's assistant entry.
	u.history = []Entry{{Role: RoleAssistant, Content: summary}}
}

// stepSummary lists the step's fields and values and asks the user to
// confirm or request changes.
func stepSummary(st *State, stepFields []string, answers map[string]interface{}) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Great, Step %d is complete! Here's what I have:\n\n", st.CurrentStep)
	for _, fid := range stepFields {
		label := st.Definition.PromptOf(fid)
		if label == "" {
			label = fid
		}
		fmt.Fprintf(&sb, "- **%s**: %s\n", label, displayValue(answers[fid]))
	}
	sb.WriteString("\nPlease confirm to continue to the next step, or tell me what you'd like to change.")
	return sb.String()
}
