package engine

import (
	"encoding/json"
	"fmt"
)

// toolHandlerNode ingests tool results the host application executed.
// Each result is serialized into a system directive in history; when
// the options heuristic recognizes a list of names in the payload, the
// directive tells the LLM to emit ASK_DROPDOWN with exactly those
// options next. Chains to conversation.
func toolHandlerNode(st *State) update {
	var history []Entry

	for _, result := range st.toolResults {
		name := result.ToolName
		if name == "" {
			name = "unknown"
		}
		data, err := json.Marshal(result.Result)
		if err != nil {
			data = []byte("{}")
		}

		directive := fmt.Sprintf("[Tool result for %s]: %s", name, data)
		if hint := extractOptionsHint(result.Result); hint != "" {
			directive += fmt.Sprintf(
				"\n\n[INSTRUCTION: Use the data above. "+
					"Return ASK_DROPDOWN with these options: %s]", hint)
		} else {
			directive += "\n\n[INSTRUCTION: Use the data above to continue the form. " +
				"Return the appropriate JSON action.]"
		}
		history = append(history, Entry{Role: RoleUser, Content: directive})
	}

	if st.userMessage != "" {
		history = append(history, Entry{Role: RoleUser, Content: st.userMessage})
	}

	return update{
		history:          history,
		pendingToolName:  strPtr(""),
		userMessageAdded: boolPtr(true),
	}
}

// extractOptionsHint scans a tool result for a list of human-readable
// option names, accepting a bounded set of common shapes: arrays of
// objects carrying name, value.english, label, title, text, or
// description. Returns a JSON list string, or "" when nothing matches.
func extractOptionsHint(data map[string]interface{}) string {
	var options []string

	for _, val := range data {
		list, ok := val.([]interface{})
		if !ok {
			continue
		}
		for _, raw := range list {
			item, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if opt := optionFromItem(item); opt != "" {
				options = append(options, opt)
			}
		}
	}

	if len(options) == 0 {
		return ""
	}
	b, err := json.Marshal(options)
	if err != nil {
		return ""
	}
	return string(b)
}

func optionFromItem(item map[string]interface{}) string {
	// Bilingual name objects prefer the English variant.
	if name, ok := item["name"].(map[string]interface{}); ok {
		if eng, ok := name["english"].(string); ok && eng != "" {
			return eng
		}
	}
	if name, ok := item["name"].(string); ok && name != "" {
		return name
	}
	if value, ok := item["value"].(map[string]interface{}); ok {
		if eng, ok := value["english"].(string); ok && eng != "" {
			return eng
		}
	}
	for _, key := range []string{"label", "title", "text", "description"} {
		if s, ok := item[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
