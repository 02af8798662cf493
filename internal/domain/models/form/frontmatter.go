package form

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"formpilot/internal/domain"
)

// rawField mirrors the YAML shape of a field entry. Required and Step
// are loosely typed on the wire (bools, strings, ints) and coerced here.
type rawField struct {
	ID        string          `yaml:"id"`
	Type      string          `yaml:"type"`
	Required  interface{}     `yaml:"required"`
	Step      interface{}     `yaml:"step"`
	Prompt    string          `yaml:"prompt"`
	Options   []string        `yaml:"options"`
	VisibleIf *VisibilityRule `yaml:"visible_if"`
}

type rawDefinition struct {
	FormID string     `yaml:"form_id"`
	Title  string     `yaml:"title"`
	Fields []rawField `yaml:"fields"`
	Tools  []Tool     `yaml:"tools"`
}

// ParseDefinition parses a hybrid form definition: a YAML frontmatter
// header with the structured field list, followed by a markdown body
// that is passed to the LLM as conversational context.
//
// Format:
//
//	---
//	form_id: my_form
//	title: My Form
//	fields:
//	  - id: name
//	    type: text
//	    required: true
//	    prompt: "What is your name?"
//	tools:
//	  - name: get_data
//	    purpose: "Fetch options"
//	---
//	# My Form
//	... markdown body for the LLM ...
func ParseDefinition(content string) (*Definition, error) {
	stripped := strings.TrimSpace(content)
	if !strings.HasPrefix(stripped, "---") {
		return nil, fmt.Errorf("%w: missing frontmatter header", domain.ErrMalformedDefinition)
	}

	// Find the closing --- delimiter
	end := strings.Index(stripped[3:], "---")
	if end == -1 {
		return nil, fmt.Errorf("%w: unterminated frontmatter header", domain.ErrMalformedDefinition)
	}
	yamlBlock := strings.TrimSpace(stripped[3 : 3+end])
	body := strings.TrimSpace(stripped[3+end+3:])

	var raw rawDefinition
	if err := yaml.Unmarshal([]byte(yamlBlock), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDefinition, err)
	}

	def := &Definition{
		FormID: raw.FormID,
		Title:  raw.Title,
		Tools:  raw.Tools,
		Body:   body,
	}
	for _, rf := range raw.Fields {
		required, conditional := coerceRequired(rf.Required)
		def.Fields = append(def.Fields, Field{
			ID:          rf.ID,
			Type:        FieldType(strings.ToLower(rf.Type)),
			Required:    required,
			Conditional: conditional,
			Prompt:      strings.TrimSpace(rf.Prompt),
			Step:        coerceStep(rf.Step),
			Options:     rf.Options,
			VisibleIf:   rf.VisibleIf,
		})
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDefinition, err)
	}
	return def, nil
}

// coerceRequired interprets the raw `required` value. Bool true and the
// case-insensitive string "true" mean required; "conditional" marks the
// field conditional; anything else means optional.
func coerceRequired(raw interface{}) (required, conditional bool) {
	switch v := raw.(type) {
	case bool:
		return v, false
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, false
		case "conditional":
			return false, true
		}
	}
	return false, false
}

// coerceStep interprets the raw `step` value as a positive integer,
// defaulting to 1 on anything missing or unparseable.
func coerceStep(raw interface{}) int {
	var step int
	switch v := raw.(type) {
	case int:
		step = v
	case int64:
		step = int(v)
	case float64:
		step = int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 1
		}
		step = n
	default:
		return 1
	}
	if step < 1 {
		return 1
	}
	return step
}
