package engine

import (
	"fmt"
	"regexp"
	"strings"

	"formpilot/internal/domain/models/form"
)

// Confirm/edit lexicons for the step checkpoint. Includes Arabic
// variants since deployments serve bilingual forms.
var confirmWords = []string{
	"yes", "ok", "okay", "confirm", "confirmed", "continue", "proceed",
	"looks good", "all good", "correct", "approved",
	"نعم", "ايوه", "ايوا", "تمام", "موافق", "اكمل", "استمر",
}

var editWords = []string{
	"change", "update", "edit", "modify", "fix", "wrong", "not correct",
	"تعديل", "غير", "غيّر", "عدل", "صحح", "خطأ", "مو صحيح",
}

// stepConfirmationNode handles the user's reply to a step summary.
// Confirm advances to the next step; an edit request re-opens the
// current step's fields; anything else re-states the choice.
func stepConfirmationNode(st *State) update {
	text := strings.ToLower(strings.TrimSpace(st.userMessage))
	stepFields := st.RequiredByStep[st.CurrentStep]

	u := update{
		userMessageAdded:     boolPtr(true),
		history:              []Entry{{Role: RoleUser, Content: st.userMessage}},
		skipConversationTurn: boolPtr(false),
	}

	if matchesLexicon(text, confirmWords) {
		completed := st.CompletedSteps
		if !st.StepCompleted(st.CurrentStep) {
			completed = append(append([]int(nil), completed...), st.CurrentStep)
		}
		u.completedSteps = completed
		u.awaitingStepConfirmation = boolPtr(false)
		u.allowAnsweredFieldUpdate = boolPtr(false)
		u.pendingFieldID = strPtr("")
		u.pendingActionType = strPtr("")
		if st.CurrentStep < st.MaxStep {
			u.currentStep = intPtr(st.CurrentStep + 1)
		}
		u.history = append(u.history, Entry{Role: RoleUser, Content: fmt.Sprintf(
			"[SYSTEM: The user confirmed Step %d. Proceed to the next step now. "+
				"Ask the next required unanswered field.]", st.CurrentStep)})
		return u
	}

	if matchesLexicon(text, editWords) {
		u.awaitingStepConfirmation = boolPtr(false)
		u.allowAnsweredFieldUpdate = boolPtr(true)
		u.pendingFieldID = strPtr("")
		u.pendingActionType = strPtr("")

		if fieldID := inferRequestedField(text, stepFields, st.Definition); fieldID != "" {
			actionType := askActionForType(st.Definition.TypeOf(fieldID))
			var options []string
			if actionType == ActionAskDropdown || actionType == ActionAskCheckbox {
				if f := st.Definition.FieldByID(fieldID); f != nil && len(f.Options) > 0 {
					options = append([]string(nil), f.Options...)
				} else {
					// No static options to offer (tool-backed field); take
					// the value as free text instead of an empty selection.
					actionType = ActionAskText
				}
			}
			prompt := st.Definition.PromptOf(fieldID)
			if prompt == "" {
				prompt = fmt.Sprintf("Please share the updated value for %s.", fieldID)
			}
			askMessage := "Sure, let's update that. " + prompt
			u.action = &Payload{
				Action:  actionType,
				FieldID: fieldID,
				Label:   prompt,
				Message: askMessage,
				Options: options,
			}
			u.pendingFieldID = strPtr(fieldID)
			u.pendingActionType = strPtr(actionType)
			u.skipConversationTurn = boolPtr(true)
			u.history = append(u.history, Entry{Role: RoleAssistant, Content: askMessage})
			return u
		}

		// Field not inferable; hand the edit to the LLM without
		// advancing the step.
		u.history = append(u.history, Entry{Role: RoleUser, Content: fmt.Sprintf(
			"[SYSTEM: The user requested changes before confirming Step %d. "+
				"Step %d fields: [%s]. "+
				"Help them update the requested item. Do NOT move to the next step yet. "+
				"Once Step %d is complete again, provide a new summary and ask for confirmation.]",
			st.CurrentStep, st.CurrentStep, strings.Join(stepFields, ", "), st.CurrentStep)})
		return u
	}

	// Ambiguous: keep waiting for an explicit confirm or edit request.
	msg := fmt.Sprintf(
		"Step %d is ready. Please confirm to continue, "+
			"or tell me what you'd like to update in this step.", st.CurrentStep)
	u.action = messageAction(msg)
	u.allowAnsweredFieldUpdate = boolPtr(false)
	u.skipConversationTurn = boolPtr(true)
	u.history = append(u.history, Entry{Role: RoleAssistant, Content: msg})
	return u
}

// matchesLexicon checks each token against the text. Short ASCII words
// need word boundaries so "my" never matches inside "mystery".
func matchesLexicon(text string, words []string) bool {
	for _, w := range words {
		if hasToken(text, w) {
			return true
		}
	}
	return false
}

// shortTokenPatterns holds the word-boundary patterns for the short
// ASCII lexicon tokens, compiled once.
var shortTokenPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, words := range [][]string{confirmWords, editWords} {
		for _, w := range words {
			if isShortASCIIWord(w) {
				patterns[w] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
			}
		}
	}
	return patterns
}()

func hasToken(text, token string) bool {
	if re, ok := shortTokenPatterns[token]; ok {
		return re.MatchString(text)
	}
	return strings.Contains(text, token)
}

func isShortASCIIWord(token string) bool {
	if len(token) > 3 {
		return false
	}
	for _, r := range token {
		if r > 127 || !isLetter(r) {
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// inferRequestedField best-effort maps an edit request to one of the
// step's fields: an id mentioned literally, or a significant word from
// the field's prompt label.
func inferRequestedField(text string, stepFields []string, def *form.Definition) string {
	for _, fieldID := range stepFields {
		if strings.Contains(text, strings.ToLower(fieldID)) {
			return fieldID
		}
		label := strings.ToLower(def.PromptOf(fieldID))
		for _, word := range importantWords(label) {
			if strings.Contains(text, word) {
				return fieldID
			}
		}
	}
	return ""
}

var wordPattern = regexp.MustCompile(`[a-zA-Z]{4,}`)

var fillerWords = map[string]bool{"please": true, "provide": true, "share": true, "what": true, "your": true}

func importantWords(label string) []string {
	var words []string
	for _, w := range wordPattern.FindAllString(label, -1) {
		if !fillerWords[w] {
			words = append(words, w)
		}
	}
	return words
}
