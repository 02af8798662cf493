package engine

import (
	"strings"
	"testing"
)

func TestValidateDate(t *testing.T) {
	valid := []string{"2026-01-15", "January 15, 2026", "01/15/2026", "15 Jan 2026"}
	for _, v := range valid {
		if ok, reason := ValidateDate(v); !ok {
			t.Errorf("ValidateDate(%q) rejected: %s", v, reason)
		}
	}

	invalid := []string{"", "   ", "sdasdsdad", "tomorrow maybe"}
	for _, v := range invalid {
		ok, reason := ValidateDate(v)
		if ok {
			t.Errorf("ValidateDate(%q) should reject", v)
		}
		if strings.TrimSpace(v) != "" && !strings.Contains(reason, "not a valid date") {
			t.Errorf("ValidateDate(%q) reason should explain the format, got %q", v, reason)
		}
	}
}

func TestValidateDatetime(t *testing.T) {
	valid := []string{"2026-01-15 10:30", "2026-01-15T10:30:00", "Jan 15 2026 10:30 AM"}
	for _, v := range valid {
		if ok, reason := ValidateDatetime(v); !ok {
			t.Errorf("ValidateDatetime(%q) rejected: %s", v, reason)
		}
	}

	if ok, _ := ValidateDatetime("no digits here"); ok {
		t.Error("alphabetic string should be rejected")
	}
	if ok, reason := ValidateDatetime(""); ok || reason != "Datetime cannot be empty." {
		t.Errorf("empty datetime: got ok=%v reason=%q", ok, reason)
	}
}

func TestValidateAnswerForAction(t *testing.T) {
	if ok, _ := validateAnswerForAction(ActionAskDate, "sdasdsdad"); ok {
		t.Error("ASK_DATE should run the date validator")
	}
	// Text and other types are accepted raw
	for _, action := range []string{ActionAskText, ActionAskLocation, ActionAskDropdown, ""} {
		if ok, _ := validateAnswerForAction(action, "anything at all"); !ok {
			t.Errorf("%q should accept raw answers", action)
		}
	}
}
