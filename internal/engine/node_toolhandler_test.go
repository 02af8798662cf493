package engine

import (
	"strings"
	"testing"
)

func TestExtractOptionsHint(t *testing.T) {
	cases := []struct {
		name string
		data map[string]interface{}
		want []string
	}{
		{
			"plain names",
			map[string]interface{}{"establishments": []interface{}{
				map[string]interface{}{"name": "Alpha Plant"},
				map[string]interface{}{"name": "Beta Plant"},
			}},
			[]string{"Alpha Plant", "Beta Plant"},
		},
		{
			"bilingual names prefer english",
			map[string]interface{}{"items": []interface{}{
				map[string]interface{}{"name": map[string]interface{}{"english": "Annual", "arabic": "سنوي"}},
			}},
			[]string{"Annual"},
		},
		{
			"value.english shape",
			map[string]interface{}{"values": []interface{}{
				map[string]interface{}{"value": map[string]interface{}{"english": "Sick Leave"}},
			}},
			[]string{"Sick Leave"},
		},
		{
			"label fallback",
			map[string]interface{}{"rows": []interface{}{
				map[string]interface{}{"label": "Option A"},
				map[string]interface{}{"title": "Option B"},
			}},
			[]string{"Option A", "Option B"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hint := extractOptionsHint(tc.data)
			if hint == "" {
				t.Fatal("expected a hint, got empty string")
			}
			for _, want := range tc.want {
				if !strings.Contains(hint, want) {
					t.Errorf("hint %q missing %q", hint, want)
				}
			}
		})
	}
}

func TestExtractOptionsHint_NoMatch(t *testing.T) {
	cases := []map[string]interface{}{
		{},
		{"count": float64(3)},
		{"rows": []interface{}{"plain", "strings"}},
		{"rows": []interface{}{map[string]interface{}{"id": float64(1)}}},
	}
	for _, data := range cases {
		if hint := extractOptionsHint(data); hint != "" {
			t.Errorf("expected empty hint for %v, got %q", data, hint)
		}
	}
}

func TestToolHandlerNode(t *testing.T) {
	st := newTestState(t, twoFieldForm)
	st.toolResults = []ToolResult{{
		ToolName: "get_establishments",
		Result: map[string]interface{}{"establishments": []interface{}{
			map[string]interface{}{"name": "A"},
			map[string]interface{}{"name": "B"},
		}},
	}}
	st.PendingToolName = "get_establishments"

	u := toolHandlerNode(st)
	if len(u.history) != 1 {
		t.Fatalf("expected one directive entry, got %d", len(u.history))
	}
	directive := u.history[0].Content
	if !strings.Contains(directive, "[Tool result for get_establishments]") {
		t.Errorf("directive missing tool name: %q", directive)
	}
	if !strings.Contains(directive, "ASK_DROPDOWN") || !strings.Contains(directive, `"A"`) {
		t.Errorf("directive missing options instruction: %q", directive)
	}
	if u.pendingToolName == nil || *u.pendingToolName != "" {
		t.Error("pending tool name should be cleared")
	}
}

func TestToolHandlerNode_GenericDirective(t *testing.T) {
	st := newTestState(t, twoFieldForm)
	st.toolResults = []ToolResult{{
		ToolName: "get_stats",
		Result:   map[string]interface{}{"count": float64(4)},
	}}

	u := toolHandlerNode(st)
	if !strings.Contains(u.history[0].Content, "Use the data above to continue the form") {
		t.Errorf("expected generic directive, got %q", u.history[0].Content)
	}
}
