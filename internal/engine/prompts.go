package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"formpilot/internal/domain/models/form"
)

// buildExtractionPrompt creates the system prompt for the bulk
// extraction phase: parse as many field values as possible out of the
// user's first free-text message, and nothing else.
func buildExtractionPrompt(def *form.Definition) string {
	var sb strings.Builder

	sb.WriteString("You are a form-filling assistant. The user has just described the data ")
	sb.WriteString("they want to fill in. Extract as many field values as possible from their message.\n\n")

	sb.WriteString("## Rules\n")
	sb.WriteString("1. ONLY extract values the user explicitly stated. NEVER assume, guess, or fabricate.\n")
	sb.WriteString("2. Match extracted values to the correct field_id from the catalog below.\n")
	sb.WriteString("3. For dropdown fields, use the exact option string from valid_options; skip the field if nothing matches.\n")
	sb.WriteString("4. For checkbox fields, return a JSON array of selected option strings.\n")
	sb.WriteString("5. For date fields, convert to ISO format \"YYYY-MM-DD\".\n")
	sb.WriteString("6. For datetime fields, convert to ISO format \"YYYY-MM-DDTHH:MM:SS\".\n")
	sb.WriteString("7. For location fields, return {\"lat\": <number>, \"lng\": <number>}.\n")
	sb.WriteString("8. For text fields, use the user's text as-is.\n")
	sb.WriteString("9. Skip any field where you are NOT confident about the user's intent.\n\n")

	sb.WriteString("## Your Response Format\n")
	sb.WriteString("Respond with ONLY a single JSON object:\n")
	sb.WriteString(`{"intent": "multi_answer", "answers": {"<field_id>": <value>}, "message": "<friendly summary of what you extracted>"}`)
	sb.WriteString("\n")
	sb.WriteString("If you cannot extract anything, return an empty answers object.\n\n")

	sb.WriteString("## Form Schema\n")
	sb.WriteString(fieldCatalog(def))

	return sb.String()
}

// fieldCatalog renders the ordered field list for the extraction prompt.
func fieldCatalog(def *form.Definition) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Form: %s\n\nFields to extract:\n", def.DisplayTitle())

	for _, f := range def.Fields {
		fmt.Fprintf(&sb, "  - field_id: %q\n    type: %s\n    prompt: %q\n    required: %v\n",
			f.ID, f.Type, f.Prompt, f.Required)
		if len(f.Options) > 0 {
			fmt.Fprintf(&sb, "    valid_options: %s\n", jsonList(f.Options))
		}
		if f.VisibleIf != nil && len(f.VisibleIf.All) > 0 {
			fmt.Fprintf(&sb, "    note: only shown conditionally (depends on %s)\n",
				f.VisibleIf.All[0].Field)
		}
	}

	return sb.String()
}

// buildConversationPrompt creates the per-turn system prompt: condensed
// form context, the answered and still-required views, the next target
// field, the closed payload set with one example per action, and the
// behavioral rules the guards enforce.
func buildConversationPrompt(st *State) string {
	def := st.Definition
	var sb strings.Builder

	sb.WriteString("You are a form-filling assistant. Help the user complete the form below ")
	sb.WriteString("by asking one question at a time.\n\n")

	sb.WriteString("## Form Context\n")
	fmt.Fprintf(&sb, "Form: %s\n", def.DisplayTitle())
	if body := condenseBody(def.Body); body != "" {
		sb.WriteString(body)
		sb.WriteString("\n")
	}
	if len(def.Tools) > 0 {
		sb.WriteString("\nAvailable tools:\n")
		for _, t := range def.Tools {
			fmt.Fprintf(&sb, "  - %s: %s\n", t.Name, t.Purpose)
		}
	}
	visible := st.visibleSet()
	sb.WriteString("\n## Field Summary Table\n")
	for _, f := range def.Fields {
		if !visible[f.ID] {
			fmt.Fprintf(&sb, "  - %s (type: %s, conditional: currently HIDDEN, do NOT ask it; depends on '%s')\n",
				f.ID, f.Type, f.VisibleIf.All[0].Field)
			continue
		}
		fmt.Fprintf(&sb, "  - %s (type: %s, required: %v, ask with: %s)\n",
			f.ID, f.Type, f.Required, askActionForType(f.Type))
		if len(f.Options) > 0 {
			fmt.Fprintf(&sb, "    options: %s\n", jsonList(f.Options))
		}
	}

	sb.WriteString("\n## Current State\n")
	if len(st.Answers) > 0 {
		sb.WriteString("Answered fields:\n")
		for _, f := range def.Fields {
			if v, ok := st.Answers[f.ID]; ok {
				fmt.Fprintf(&sb, "  - %s: %s\n", f.ID, displayValue(v))
			}
		}
	} else {
		sb.WriteString("No fields answered yet.\n")
	}

	missing := st.MissingRequired()
	if len(missing) > 0 {
		fmt.Fprintf(&sb, "\nStill required (in order): [%s]\n", strings.Join(missing, ", "))
		fmt.Fprintf(&sb, "NEXT field to ask: '%s'\n", missing[0])
	} else {
		sb.WriteString("\nAll required fields are answered. Return FORM_COMPLETE.\n")
	}

	sb.WriteString("\n## Your Response Format\n")
	sb.WriteString("Respond with ONLY one JSON object. Choose exactly ONE of:\n")
	sb.WriteString(`  {"action": "MESSAGE", "text": "Thanks, that's saved."}` + "\n")
	sb.WriteString(`  {"action": "ASK_TEXT", "field_id": "description", "label": "Description", "message": "Please describe what happened."}` + "\n")
	sb.WriteString(`  {"action": "ASK_DATE", "field_id": "startDate", "label": "Start date", "message": "When does it start?"}` + "\n")
	sb.WriteString(`  {"action": "ASK_DATETIME", "field_id": "incidentTime", "label": "Incident time", "message": "When exactly did it happen?"}` + "\n")
	sb.WriteString(`  {"action": "ASK_LOCATION", "field_id": "site", "label": "Site", "message": "Where did it happen?"}` + "\n")
	sb.WriteString(`  {"action": "ASK_DROPDOWN", "field_id": "leaveType", "options": ["Annual", "Sick"], "message": "Which type of leave?"}` + "\n")
	sb.WriteString(`  {"action": "ASK_CHECKBOX", "field_id": "symptoms", "options": ["Fever", "Cough"], "message": "Select all that apply."}` + "\n")
	sb.WriteString(`  {"action": "TOOL_CALL", "tool_name": "get_establishments", "tool_args": {}}` + "\n")
	sb.WriteString(`  {"action": "FORM_COMPLETE", "data": {"field_id": "value"}, "message": "All done!"}` + "\n")

	sb.WriteString("\n## Rules\n")
	sb.WriteString("1. Ask for exactly ONE field at a time, using the ASK_ action matching the field's type.\n")
	sb.WriteString("2. NEVER re-ask a field that is already answered.\n")
	sb.WriteString("3. NEVER use MESSAGE to ask for a field value. Questions always use an ASK_ action with a field_id.\n")
	sb.WriteString("4. For ASK_DROPDOWN or ASK_CHECKBOX you MUST have real options. If the options are not listed above, return a TOOL_CALL first to fetch them.\n")
	sb.WriteString("5. NEVER return FORM_COMPLETE while required fields are still missing.\n")
	sb.WriteString("6. When re-asking a field after an invalid answer, rephrase the question. Do not repeat the same wording.\n")
	sb.WriteString("7. NEVER fabricate values the user did not provide.\n")

	return sb.String()
}

// askActionForType maps a field type to the ASK_ action used for it.
func askActionForType(t form.FieldType) string {
	switch t {
	case form.FieldTypeDate:
		return ActionAskDate
	case form.FieldTypeDatetime:
		return ActionAskDatetime
	case form.FieldTypeLocation:
		return ActionAskLocation
	case form.FieldTypeDropdown:
		return ActionAskDropdown
	case form.FieldTypeCheckbox:
		return ActionAskCheckbox
	}
	return ActionAskText
}

// buildGreeting composes the welcome message: the form title plus a
// warm summary of the required fields grouped by type.
func buildGreeting(def *form.Definition) string {
	title := def.DisplayTitle()
	summary := summarizeRequiredFields(def)

	if summary != "" {
		return fmt.Sprintf(
			"Hi there! I'll be helping you fill out the **%s** form.\n\n%s.\n\n"+
				"Feel free to tell me everything you know in one message — "+
				"I'll extract what I can and only ask about the rest!",
			title, summary)
	}
	return fmt.Sprintf(
		"Hi there! I'll be helping you fill out the **%s** form.\n\n"+
			"Go ahead and describe all the information you have — "+
			"I'll take care of filling in the form and only ask about "+
			"anything that's missing!",
		title)
}

// summarizeRequiredFields describes the required field set grouped by
// type, e.g. "We'll need a few details: 2 dates, 1 selection, and 1
// description". Returns "" for forms with no required fields.
func summarizeRequiredFields(def *form.Definition) string {
	counts := map[string]int{}
	for _, f := range def.Fields {
		if !f.Required {
			continue
		}
		switch f.Type {
		case form.FieldTypeDate, form.FieldTypeDatetime:
			counts["date"]++
		case form.FieldTypeDropdown, form.FieldTypeCheckbox:
			counts["selection"]++
		case form.FieldTypeLocation:
			counts["location"]++
		default:
			counts["detail"]++
		}
	}

	var parts []string
	for _, kind := range []string{"date", "selection", "location", "detail"} {
		n := counts[kind]
		if n == 0 {
			continue
		}
		label := kind
		if n > 1 {
			label += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, label))
	}
	if len(parts) == 0 {
		return ""
	}
	return "We'll need a few things from you: " + joinNatural(parts)
}

func joinNatural(parts []string) string {
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
}

func displayValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func jsonList(items []string) string {
	b, _ := json.Marshal(items)
	return string(b)
}
