package engine

import (
	"fmt"
	"strings"
	"unicode"

	"formpilot/internal/domain/models/form"
)

// ValidateDate checks that a string is a recognizable calendar date.
// Returns (valid, reason); the reason is empty when valid and otherwise
// gets interpolated into a re-ask directive for the LLM.
func ValidateDate(value string) (bool, string) {
	stripped := strings.TrimSpace(value)
	if stripped == "" {
		return false, "Date cannot be empty."
	}

	// Purely alphabetic strings are never dates, and the lenient parser
	// would otherwise accept things like month names alone.
	if !containsDigit(stripped) {
		return false, fmt.Sprintf(
			"'%s' is not a valid date. Please provide a date like 2026-01-15 or January 15, 2026.",
			stripped)
	}

	if _, err := form.ParseDate(stripped); err != nil {
		return false, fmt.Sprintf(
			"'%s' is not a valid date. Please provide a date like 2026-01-15 or January 15, 2026.",
			stripped)
	}
	return true, ""
}

// ValidateDatetime checks that a string is a recognizable date-time.
func ValidateDatetime(value string) (bool, string) {
	stripped := strings.TrimSpace(value)
	if stripped == "" {
		return false, "Datetime cannot be empty."
	}

	if !containsDigit(stripped) {
		return false, fmt.Sprintf(
			"'%s' is not a valid date/time. Please provide something like 2026-01-15 10:30 AM.",
			stripped)
	}

	if _, err := form.ParseDate(stripped); err != nil {
		return false, fmt.Sprintf(
			"'%s' is not a valid date/time. Please provide something like 2026-01-15 10:30 AM.",
			stripped)
	}
	return true, ""
}

// validateAnswerForAction runs the syntactic validator matching the
// ASK_ action type. Only dates and datetimes have a deterministic
// format; everything else is accepted raw and judged semantically by
// the LLM.
func validateAnswerForAction(actionType, value string) (bool, string) {
	switch actionType {
	case ActionAskDate:
		return ValidateDate(value)
	case ActionAskDatetime:
		return ValidateDatetime(value)
	}
	return true, ""
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
