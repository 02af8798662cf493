package engine

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls a JSON object out of raw LLM output. Models wrap
// JSON in markdown fences or prose more often than not, so parsing is
// tried in order of strictness: direct parse, fenced blocks, then the
// widest {...} substring. Returns nil when nothing parses.
func ExtractJSON(content string) map[string]interface{} {
	if obj := tryParse(content); obj != nil {
		return obj
	}

	// Fenced code blocks: split on ``` and try each chunk, stripping a
	// leading "json" language tag.
	if strings.Contains(content, "```") {
		for _, part := range strings.Split(content, "```") {
			stripped := strings.TrimSpace(part)
			if strings.HasPrefix(stripped, "json") {
				stripped = strings.TrimSpace(stripped[4:])
			}
			if obj := tryParse(stripped); obj != nil {
				return obj
			}
		}
	}

	// Widest brace-delimited substring.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		if obj := tryParse(content[start : end+1]); obj != nil {
			return obj
		}
	}

	return nil
}

func tryParse(s string) map[string]interface{} {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}
