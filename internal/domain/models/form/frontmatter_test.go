package form

import (
	"errors"
	"strings"
	"testing"

	"formpilot/internal/domain"
)

const sampleDefinition = `---
form_id: injury_report
title: Injury Report
fields:
  - id: establishment
    type: dropdown
    required: true
    step: 1
    prompt: "Which establishment does this concern?"
  - id: injuryDate
    type: DATE
    required: "true"
    step: 1
    prompt: "When did the injury happen?"
  - id: description
    type: text
    required: true
    step: 2
    prompt: "Describe what happened."
  - id: witness
    type: text
    required: conditional
    prompt: "Who witnessed the incident?"
  - id: notes
    type: text
    required: false
    prompt: "Anything else to add?"
tools:
  - name: get_establishments
    purpose: "Fetch the list of establishments"
---
# Injury Report

Collect the details of a workplace injury.
`

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition(sampleDefinition)
	if err != nil {
		t.Fatalf("ParseDefinition failed: %v", err)
	}

	if def.FormID != "injury_report" {
		t.Errorf("expected form_id 'injury_report', got %q", def.FormID)
	}
	if def.Title != "Injury Report" {
		t.Errorf("expected title 'Injury Report', got %q", def.Title)
	}
	if len(def.Fields) != 5 {
		t.Fatalf("expected 5 fields, got %d", len(def.Fields))
	}
	if !strings.HasPrefix(def.Body, "# Injury Report") {
		t.Errorf("body should start with the markdown heading, got %q", def.Body[:20])
	}
	if len(def.Tools) != 1 || def.Tools[0].Name != "get_establishments" {
		t.Errorf("expected one tool 'get_establishments', got %+v", def.Tools)
	}

	// Type strings are lowercased
	if def.Fields[1].Type != FieldTypeDate {
		t.Errorf("expected 'DATE' to be lowercased to date, got %q", def.Fields[1].Type)
	}
}

func TestParseDefinition_RequiredCoercion(t *testing.T) {
	def, err := ParseDefinition(sampleDefinition)
	if err != nil {
		t.Fatalf("ParseDefinition failed: %v", err)
	}

	required := def.RequiredFieldIDs()
	want := []string{"establishment", "injuryDate", "description"}
	if len(required) != len(want) {
		t.Fatalf("expected required %v, got %v", want, required)
	}
	for i, id := range want {
		if required[i] != id {
			t.Errorf("required[%d]: expected %q, got %q", i, id, required[i])
		}
	}

	// "conditional" is excluded from the required set but flagged
	witness := def.FieldByID("witness")
	if witness == nil || witness.Required || !witness.Conditional {
		t.Errorf("witness should be conditional, not required: %+v", witness)
	}
}

func TestParseDefinition_StepCoercion(t *testing.T) {
	content := `---
form_id: steps
fields:
  - id: a
    type: text
    required: true
    step: "2"
    prompt: "A?"
  - id: b
    type: text
    required: true
    step: -3
    prompt: "B?"
  - id: c
    type: text
    required: true
    step: garbage
    prompt: "C?"
  - id: d
    type: text
    required: true
    prompt: "D?"
---
body
`
	def, err := ParseDefinition(content)
	if err != nil {
		t.Fatalf("ParseDefinition failed: %v", err)
	}

	wantSteps := map[string]int{"a": 2, "b": 1, "c": 1, "d": 1}
	for id, want := range wantSteps {
		if got := def.FieldByID(id).Step; got != want {
			t.Errorf("field %q: expected step %d, got %d", id, want, got)
		}
	}
	if def.MaxStep() != 2 {
		t.Errorf("expected max step 2, got %d", def.MaxStep())
	}
}

func TestParseDefinition_Malformed(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"no frontmatter", "# Just markdown\nno header here"},
		{"unterminated header", "---\nform_id: x\nfields:\n  - id: a\n"},
		{"invalid yaml", "---\nfields: [unclosed\n---\nbody"},
		{"no fields", "---\nform_id: empty\n---\nbody"},
		{"duplicate ids", "---\nfields:\n  - id: a\n    type: text\n    prompt: \"A?\"\n  - id: a\n    type: text\n    prompt: \"A again?\"\n---\nbody"},
		{"unknown type", "---\nfields:\n  - id: a\n    type: slider\n    prompt: \"A?\"\n---\nbody"},
		{"dropdown without options or tools", "---\nfields:\n  - id: a\n    type: dropdown\n    prompt: \"Pick one\"\n---\nbody"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDefinition(tc.content)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, domain.ErrMalformedDefinition) {
				t.Errorf("expected ErrMalformedDefinition, got %v", err)
			}
		})
	}
}

func TestParseDefinition_VisibilityReferences(t *testing.T) {
	content := `---
fields:
  - id: a
    type: text
    required: true
    prompt: "A?"
  - id: b
    type: text
    required: conditional
    prompt: "B?"
    visible_if:
      all:
        - field: missing
          operator: EXISTS
---
body
`
	_, err := ParseDefinition(content)
	if err == nil {
		t.Fatal("expected error for dangling visibility reference, got nil")
	}
}
