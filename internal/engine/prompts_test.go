package engine

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuildExtractionPrompt(t *testing.T) {
	st := newTestState(t, twoFieldForm)
	prompt := buildExtractionPrompt(st.Definition)

	for _, want := range []string{
		`"intent": "multi_answer"`,
		`field_id: "name"`,
		`field_id: "color"`,
		"NEVER assume, guess, or fabricate",
		`valid_options: ["Red","Blue","Green"]`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("extraction prompt missing %q", want)
		}
	}
}

func TestBuildConversationPrompt(t *testing.T) {
	st := newTestState(t, twoFieldForm)
	st.Answers = map[string]interface{}{"name": "Bob"}

	prompt := buildConversationPrompt(st)

	for _, want := range []string{
		"name: Bob",
		"Still required (in order): [color]",
		"NEXT field to ask: 'color'",
		"NEVER re-ask a field that is already answered",
		"NEVER use MESSAGE to ask for a field value",
		"NEVER return FORM_COMPLETE while required fields are still missing",
		`"action": "ASK_DROPDOWN"`,
		`"action": "TOOL_CALL"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("conversation prompt missing %q", want)
		}
	}
}

func TestBuildConversationPrompt_HiddenConditionalField(t *testing.T) {
	st := newTestState(t, conditionalForm)

	prompt := buildConversationPrompt(st)
	if !strings.Contains(prompt, "currently HIDDEN") || !strings.Contains(prompt, "depends on 'followUp'") {
		t.Errorf("hidden conditional field should be marked in the summary table: %q", prompt)
	}
	if !strings.Contains(prompt, "Still required (in order): [followUp]") {
		t.Errorf("hidden field must not appear in the missing list: %q", prompt)
	}

	// Once the controlling answer reveals it, the field is asked normally.
	st.Answers["followUp"] = "yes"
	prompt = buildConversationPrompt(st)
	if strings.Contains(prompt, "currently HIDDEN") {
		t.Errorf("revealed field should not be marked hidden: %q", prompt)
	}
	if !strings.Contains(prompt, "NEXT field to ask: 'previousDate'") {
		t.Errorf("revealed field should become the next target: %q", prompt)
	}
}

func TestBuildConversationPrompt_AllAnswered(t *testing.T) {
	st := newTestState(t, twoFieldForm)
	st.Answers = map[string]interface{}{"name": "Bob", "color": "Red"}

	prompt := buildConversationPrompt(st)
	if !strings.Contains(prompt, "All required fields are answered. Return FORM_COMPLETE.") {
		t.Error("prompt should direct the LLM to complete the form")
	}
}

func TestBuildGreeting(t *testing.T) {
	st := newTestState(t, twoFieldForm)
	greeting := buildGreeting(st.Definition)

	if !strings.Contains(greeting, "Test Form") {
		t.Errorf("greeting should name the form: %q", greeting)
	}
	if !strings.Contains(greeting, "1 selection") || !strings.Contains(greeting, "1 detail") {
		t.Errorf("greeting should summarize fields by type: %q", greeting)
	}
}

func TestCondenseBody(t *testing.T) {
	short := "just a few\nlines of text"
	if got := condenseBody(short); got != short {
		t.Error("short bodies pass through unchanged")
	}

	// Long body with keeper sections keeps only those sections.
	var sb strings.Builder
	sb.WriteString("# Intro\n")
	for i := 0; i < 80; i++ {
		sb.WriteString("filler line\n")
	}
	sb.WriteString("## Available Tools\ntool one\ntool two\n")
	sb.WriteString("## Background\nignored\n")
	sb.WriteString("## Field Summary\nfields here\n")

	got := condenseBody(sb.String())
	if !strings.Contains(got, "tool one") || !strings.Contains(got, "fields here") {
		t.Errorf("condensed body should keep tool and field sections: %q", got)
	}
	if strings.Contains(got, "filler line") || strings.Contains(got, "ignored") {
		t.Errorf("condensed body should drop non-keeper content: %q", got)
	}

	// Long body without keeper sections degrades to head + tail.
	var plain strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&plain, "line %d\n", i)
	}
	got = condenseBody(plain.String())
	if !strings.Contains(got, "[... content omitted ...]") {
		t.Error("fallback condensation should carry an elision marker")
	}
	if !strings.Contains(got, "line 0") || !strings.Contains(got, "line 99") {
		t.Errorf("fallback should keep head and tail: %q", got)
	}
}
