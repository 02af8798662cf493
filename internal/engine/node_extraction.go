package engine

import (
	"context"

	"formpilot/internal/domain/models/form"
	"formpilot/internal/domain/services/llm"
)

// extractionNode runs exactly once per session, on the first real user
// message: a bulk parse that pulls as many field values as possible out
// of the free text. Extracted date/datetime values are checked by the
// deterministic validators before storage; rejects are dropped, not
// stored. A multi_answer result chains to conversation for the next
// question; a direct action chains to finalize.
func (e *Engine) extractionNode(ctx context.Context, st *State) (update, error) {
	u := update{
		initialExtractionDone: boolPtr(true),
		userMessageAdded:      boolPtr(true),
		parsedSet:             true,
	}
	if st.userMessage != "" {
		u.history = append(u.history, Entry{Role: RoleUser, Content: st.userMessage})
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: buildExtractionPrompt(st.Definition)},
		{Role: llm.RoleUser, Content: st.userMessage},
	}

	parsed, err := e.callWithGuards(ctx, messages, guardContext{
		answers:         st.Answers,
		missingRequired: st.MissingRequired(),
		extractionDone:  true,
	})
	if err != nil {
		return update{}, err
	}
	if parsed == nil {
		// Extraction failed entirely; conversation picks up from here.
		return u, nil
	}

	if parsed.Intent == IntentMultiAnswer {
		validated := make(map[string]interface{})
		for fieldID, value := range parsed.Answers {
			if !st.Definition.HasField(fieldID) {
				e.logger.Warn("extraction returned unknown field", "field_id", fieldID)
				continue
			}
			if reject, reason := rejectTypedValue(st.Definition.TypeOf(fieldID), value); reject {
				e.logger.Warn("extraction rejected value",
					"field_id", fieldID, "value", value, "reason", reason)
				continue
			}
			validated[fieldID] = value
		}
		if len(validated) > 0 {
			u.answers = validated
		}
		if parsed.Message != "" {
			u.history = append(u.history, Entry{Role: RoleAssistant, Content: parsed.Message})
		}
		return u, nil
	}

	// Direct action (ASK_, TOOL_CALL, ...): hand straight to finalize.
	u.parsed = parsed
	return u, nil
}

// rejectTypedValue applies the deterministic validators to an extracted
// value where the field type has one.
func rejectTypedValue(fieldType form.FieldType, value interface{}) (bool, string) {
	s, isString := value.(string)
	if !isString {
		return false, ""
	}
	switch fieldType {
	case form.FieldTypeDate:
		if ok, reason := ValidateDate(s); !ok {
			return true, reason
		}
	case form.FieldTypeDatetime:
		if ok, reason := ValidateDatetime(s); !ok {
			return true, reason
		}
	}
	return false, ""
}
