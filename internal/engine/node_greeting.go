package engine

// greetingNode handles the very first turn of a session: an empty user
// message on an empty history. It emits a welcome MESSAGE naming the
// form and summarizing what will be collected, without touching the
// LLM. A form with no required fields is already complete and closes
// immediately.
func greetingNode(st *State) update {
	if len(st.RequiredFields) == 0 {
		complete := &Payload{
			Action:  ActionFormComplete,
			Data:    copyAnswers(st.Answers),
			Message: "This form has no required fields, so we're already done!",
		}
		u := update{action: complete}
		if len(st.History) == 0 {
			u.history = []Entry{{Role: RoleAssistant, Content: complete.Message}}
		}
		return u
	}

	greeting := buildGreeting(st.Definition)
	u := update{action: messageAction(greeting)}
	// Repeated empty-message calls re-emit the same greeting without
	// duplicating the history entry.
	if len(st.History) == 0 {
		u.history = []Entry{{Role: RoleAssistant, Content: greeting}}
	}
	return u
}

func copyAnswers(answers map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(answers))
	for k, v := range answers {
		out[k] = v
	}
	return out
}
