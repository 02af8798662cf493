package engine

import "fmt"

// validationNode handles a user reply to a pending ASK_ action. Dates
// and datetimes get the deterministic syntactic check: valid answers
// are stored immediately, invalid ones keep the field pending and
// inject a re-ask directive. Text-like answers are held in
// pending_text_value for the LLM to judge semantically; finalize
// commits or discards the held value based on the LLM's next action.
// Always chains to conversation.
func (e *Engine) validationNode(st *State) update {
	raw := st.userMessage
	fieldID := st.PendingFieldID
	actionType := st.PendingActionType

	u := update{userMessageAdded: boolPtr(true)}

	if actionType == ActionAskText {
		// Semantic path: hold the value, let the LLM rule on it.
		e.logger.Info("holding text answer for LLM validation",
			"field_id", fieldID, "value", truncate(raw, 100))
		u.history = append(u.history,
			Entry{Role: RoleUser, Content: raw},
			Entry{Role: RoleUser, Content: fmt.Sprintf(
				"[SYSTEM: The user answered '%s' for field '%s'. "+
					"VALIDATE this answer: Is it relevant and appropriate for "+
					"the question asked? Does it make sense in context? "+
					"If YES — proceed to the NEXT unanswered field. "+
					"If NO (gibberish, irrelevant, nonsensical, or clearly "+
					"wrong context) — re-ask the SAME field '%s' using ASK_TEXT. "+
					"Politely tell the user why their answer doesn't fit "+
					"and ask again in a clearer way.]",
				raw, fieldID, fieldID)})
		u.pendingTextValue = strPtr(raw)
		u.pendingTextFieldID = strPtr(fieldID)
		u.pendingFieldID = strPtr("")
		u.pendingActionType = strPtr("")
		return u
	}

	// Syntactic path.
	valid, reason := validateAnswerForAction(actionType, raw)
	if valid {
		e.logger.Info("auto-stored answer",
			"field_id", fieldID, "value", truncate(raw, 100))
		u.answers = map[string]interface{}{fieldID: raw}
		u.history = append(u.history, Entry{Role: RoleUser, Content: raw})
		u.pendingFieldID = strPtr("")
		u.pendingActionType = strPtr("")
		return u
	}

	// Invalid: keep the field pending so the LLM re-asks it.
	e.logger.Warn("answer validation failed",
		"field_id", fieldID, "action_type", actionType, "reason", reason)
	u.history = append(u.history,
		Entry{Role: RoleUser, Content: raw},
		Entry{Role: RoleUser, Content: fmt.Sprintf(
			"[SYSTEM: The user's answer '%s' for field '%s' is INVALID. "+
				"%s "+
				"You MUST re-ask this field using %s with field_id '%s'. "+
				"Tell the user their input was not valid and ask again.]",
			raw, fieldID, reason, actionType, fieldID)})
	return u
}
