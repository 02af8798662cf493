package form

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// Operator is a visibility condition operator. All operators are
// evaluated deterministically in code, never by the LLM.
type Operator string

const (
	OpExists     Operator = "EXISTS"
	OpEquals     Operator = "EQUALS"
	OpNotEquals  Operator = "NOT_EQUALS"
	OpAfter      Operator = "AFTER"
	OpBefore     Operator = "BEFORE"
	OpOnOrAfter  Operator = "ON_OR_AFTER"
	OpOnOrBefore Operator = "ON_OR_BEFORE"
)

// Condition references another field and applies an operator to decide
// whether the owning field is visible. The comparison value is either
// static (Value) or a dynamic reference to another answer (ValueField).
type Condition struct {
	Field      string   `yaml:"field"`
	Operator   Operator `yaml:"operator"`
	Value      string   `yaml:"value"`
	ValueField string   `yaml:"value_field"`
}

// VisibilityRule wraps a list of conditions with AND logic: every
// condition in All must pass for the field to be visible.
type VisibilityRule struct {
	All []Condition `yaml:"all"`
}

// Visible evaluates the rule against the current answers.
func (r *VisibilityRule) Visible(answers map[string]interface{}) bool {
	for _, c := range r.All {
		if !c.evaluate(answers) {
			return false
		}
	}
	return true
}

func (c *Condition) evaluate(answers map[string]interface{}) bool {
	fieldValue, answered := answers[c.Field]

	switch c.Operator {
	case OpExists:
		return answered && fieldValue != nil

	case OpEquals:
		compare, ok := c.compareValue(answers)
		if !answered || !ok {
			return false
		}
		return stringify(fieldValue) == compare

	case OpNotEquals:
		compare, ok := c.compareValue(answers)
		if !answered || !ok {
			return false
		}
		return stringify(fieldValue) != compare

	case OpAfter:
		return c.compareDates(fieldValue, answers, func(a, b time.Time) bool { return a.After(b) })
	case OpBefore:
		return c.compareDates(fieldValue, answers, func(a, b time.Time) bool { return a.Before(b) })
	case OpOnOrAfter:
		return c.compareDates(fieldValue, answers, func(a, b time.Time) bool { return !a.Before(b) })
	case OpOnOrBefore:
		return c.compareDates(fieldValue, answers, func(a, b time.Time) bool { return !a.After(b) })
	}

	// Unknown operator - schema validation rejects these up front
	return false
}

// compareValue resolves the comparison value: a dynamic field reference
// takes precedence over a static value.
func (c *Condition) compareValue(answers map[string]interface{}) (string, bool) {
	if c.ValueField != "" {
		v, ok := answers[c.ValueField]
		if !ok || v == nil {
			return "", false
		}
		return stringify(v), true
	}
	if c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func (c *Condition) compareDates(fieldValue interface{}, answers map[string]interface{}, cmp func(a, b time.Time) bool) bool {
	if fieldValue == nil {
		return false
	}
	compareRaw, ok := c.compareValue(answers)
	if !ok {
		return false
	}

	fieldDate, err1 := ParseDate(stringify(fieldValue))
	compareDate, err2 := ParseDate(compareRaw)
	if err1 != nil || err2 != nil {
		return false
	}
	// Compare at day granularity
	return cmp(truncateToDay(fieldDate), truncateToDay(compareDate))
}

// ParseDate parses a date or datetime string leniently, accepting ISO
// dates, datetimes, and common human formats.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	return dateparse.ParseAny(value)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
