package engine

import (
	"context"

	"formpilot/internal/domain/services/llm"
)

// maxHistoryMessages bounds how much conversation history goes into the
// LLM context per turn.
const maxHistoryMessages = 30

// fallbackText is the apologetic MESSAGE emitted when the guarded
// retry loop exhausts its budget.
const fallbackText = "Sorry, I had trouble understanding that. Could you try again in one short sentence?"

// conversationNode runs a normal LLM turn: build the system prompt
// from the current session, replay recent history, and call through
// the guarded loop. Success stores the payload for finalize; failure
// emits the fallback MESSAGE and ends the turn.
func (e *Engine) conversationNode(ctx context.Context, st *State) (update, error) {
	var newEntries []Entry
	if !st.userMessageAdded && st.userMessage != "" {
		newEntries = append(newEntries, Entry{Role: RoleUser, Content: st.userMessage})
	}

	fullHistory := append(append([]Entry(nil), st.History...), newEntries...)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: buildConversationPrompt(st)},
	}
	recent := fullHistory
	if len(recent) > maxHistoryMessages {
		recent = recent[len(recent)-maxHistoryMessages:]
	}
	for _, entry := range recent {
		role := llm.RoleUser
		if entry.Role == RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: entry.Content})
	}

	parsed, err := e.callWithGuards(ctx, messages, guardContext{
		answers:             st.Answers,
		missingRequired:     st.MissingRequired(),
		extractionDone:      st.InitialExtractionDone,
		allowAnsweredUpdate: st.AllowAnsweredFieldUpdate,
		recentAskTexts:      recentReaskTexts(st),
	})
	if err != nil {
		return update{}, err
	}

	u := update{
		userMessageAdded: boolPtr(true),
		history:          newEntries,
		parsedSet:        true,
	}

	if parsed == nil {
		u.action = messageAction(fallbackText)
		u.history = append(u.history, Entry{Role: RoleAssistant, Content: fallbackText})
		return u, nil
	}

	u.parsed = parsed
	return u, nil
}

// recentReaskTexts collects the assistant's last few messages when a
// field is pending re-ask after a failed validation. The verbatim
// re-ask guard compares new ask wordings against these.
func recentReaskTexts(st *State) []string {
	if st.PendingFieldID == "" {
		return nil
	}
	var texts []string
	for i := len(st.History) - 1; i >= 0 && len(texts) < 3; i-- {
		if st.History[i].Role == RoleAssistant {
			texts = append(texts, st.History[i].Content)
		}
	}
	return texts
}
