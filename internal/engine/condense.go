package engine

import (
	"strings"
)

// condenseMaxLines is the threshold above which the form body gets
// condensed before prompt injection.
const condenseMaxLines = 60

// sectionKeywords mark the heading-delimited sections worth keeping
// when the body is too long: tool descriptions, the field summary, and
// authoring instructions.
var sectionKeywords = []string{"tool", "field", "instruction"}

// condenseBody shrinks a long form body for prompt context. Short
// bodies pass through unchanged. Long bodies are reduced to their
// tool/field/instruction sections; when no such sections exist, a
// head-plus-tail excerpt with an elision marker is used.
func condenseBody(body string) string {
	lines := strings.Split(body, "\n")
	if len(lines) <= condenseMaxLines {
		return body
	}

	if sections := extractSections(lines); sections != "" {
		return sections
	}

	head := lines[:condenseMaxLines/2]
	tail := lines[len(lines)-condenseMaxLines/4:]
	var sb strings.Builder
	sb.WriteString(strings.Join(head, "\n"))
	sb.WriteString("\n\n[... content omitted ...]\n\n")
	sb.WriteString(strings.Join(tail, "\n"))
	return sb.String()
}

// extractSections collects markdown sections whose heading contains one
// of the keeper keywords. A section runs from its heading to the next
// heading of the same or higher level.
func extractSections(lines []string) string {
	var kept []string
	keeping := false
	keepLevel := 0

	for _, line := range lines {
		level, heading := parseHeading(line)
		if level > 0 {
			if keeping && level <= keepLevel {
				keeping = false
			}
			if wantSection(heading) {
				keeping = true
				keepLevel = level
			}
		}
		if keeping {
			kept = append(kept, line)
		}
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func parseHeading(line string) (level int, text string) {
	trimmed := strings.TrimSpace(line)
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level >= len(trimmed) || trimmed[level] != ' ' {
		return 0, ""
	}
	return level, strings.TrimSpace(trimmed[level:])
}

func wantSection(heading string) bool {
	lower := strings.ToLower(heading)
	for _, kw := range sectionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
