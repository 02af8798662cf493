package engine

import (
	"fmt"
	"strings"
)

// Action tags the closed set of outbound payloads.
const (
	ActionMessage      = "MESSAGE"
	ActionAskText      = "ASK_TEXT"
	ActionAskDate      = "ASK_DATE"
	ActionAskDatetime  = "ASK_DATETIME"
	ActionAskLocation  = "ASK_LOCATION"
	ActionAskDropdown  = "ASK_DROPDOWN"
	ActionAskCheckbox  = "ASK_CHECKBOX"
	ActionToolCall     = "TOOL_CALL"
	ActionFormComplete = "FORM_COMPLETE"

	// IntentMultiAnswer tags the bulk-extraction payload; it carries an
	// intent instead of an action and never leaves the engine.
	IntentMultiAnswer = "multi_answer"
)

var validActions = map[string]bool{
	ActionMessage:      true,
	ActionAskText:      true,
	ActionAskDate:      true,
	ActionAskDatetime:  true,
	ActionAskLocation:  true,
	ActionAskDropdown:  true,
	ActionAskCheckbox:  true,
	ActionToolCall:     true,
	ActionFormComplete: true,
}

// Payload is a validated LLM output: either a multi_answer extraction
// result (Intent set) or one of the closed action set (Action set).
// Only the fields relevant to the tag are populated.
type Payload struct {
	Intent string `json:"intent,omitempty"`
	Action string `json:"action,omitempty"`

	FieldID string   `json:"field_id,omitempty"`
	Label   string   `json:"label,omitempty"`
	Message string   `json:"message,omitempty"`
	Text    string   `json:"text,omitempty"`
	Options []string `json:"options,omitempty"`

	ToolName string                 `json:"tool_name,omitempty"`
	ToolArgs map[string]interface{} `json:"tool_args,omitempty"`

	// Answers carries multi_answer extraction results; Data carries the
	// FORM_COMPLETE output map. Value is an explicit single-field commit.
	Answers map[string]interface{} `json:"answers,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Value   interface{}            `json:"value,omitempty"`
}

// IsAsk reports whether the payload asks the user for a field value.
func (p *Payload) IsAsk() bool {
	return strings.HasPrefix(p.Action, "ASK_")
}

// DisplayText returns the user-facing text, preferring message over text.
func (p *Payload) DisplayText() string {
	if p.Message != "" {
		return p.Message
	}
	return p.Text
}

// messageAction builds a plain MESSAGE payload.
func messageAction(text string) *Payload {
	return &Payload{Action: ActionMessage, Text: text}
}

// ValidatePayload checks a raw LLM JSON object against the closed
// payload set and normalizes it. Returns the payload on success, or a
// human-readable reason on failure. Unknown action strings are not
// handled here; the caller's guards coerce those.
func ValidatePayload(raw map[string]interface{}) (*Payload, string) {
	intent, _ := raw["intent"].(string)
	action, _ := raw["action"].(string)

	if intent == IntentMultiAnswer {
		p := &Payload{
			Intent:  IntentMultiAnswer,
			Message: rawString(raw, "message"),
		}
		if answers, ok := raw["answers"].(map[string]interface{}); ok {
			p.Answers = answers
		} else {
			p.Answers = map[string]interface{}{}
		}
		return p, ""
	}

	if !validActions[action] {
		return nil, "Payload must contain a valid 'action' or intent='multi_answer'."
	}

	p := &Payload{
		Action:  action,
		FieldID: rawString(raw, "field_id"),
		Label:   rawString(raw, "label"),
		Message: rawString(raw, "message"),
		Text:    rawString(raw, "text"),
		Value:   raw["value"],
	}

	switch action {
	case ActionMessage:
		// Promote message to text when only message is present.
		if p.Text == "" && p.Message != "" {
			p.Text = p.Message
		}
		if p.Text == "" {
			return nil, "MESSAGE must include 'text' or 'message'."
		}

	case ActionAskText, ActionAskDate, ActionAskDatetime, ActionAskLocation:
		if p.FieldID == "" {
			return nil, fmt.Sprintf("%s must include a 'field_id'.", action)
		}

	case ActionAskDropdown, ActionAskCheckbox:
		if p.FieldID == "" {
			return nil, fmt.Sprintf("%s must include a 'field_id'.", action)
		}
		p.Options = rawStringList(raw, "options")

	case ActionToolCall:
		p.ToolName = rawString(raw, "tool_name")
		if p.ToolName == "" {
			return nil, "TOOL_CALL must include a 'tool_name'."
		}
		if args, ok := raw["tool_args"].(map[string]interface{}); ok {
			p.ToolArgs = args
		} else {
			p.ToolArgs = map[string]interface{}{}
		}

	case ActionFormComplete:
		if data, ok := raw["data"].(map[string]interface{}); ok {
			p.Data = data
		}
	}

	return p, ""
}

func rawString(raw map[string]interface{}, key string) string {
	s, _ := raw[key].(string)
	return s
}

// rawStringList coerces a JSON array into strings, rendering non-string
// elements with %v. Missing or non-array values yield nil.
func rawStringList(raw map[string]interface{}, key string) []string {
	list, ok := raw[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}
