package analysis

import (
	"regexp"
	"strings"
)

// Result holds the structured sections extracted from an LLM response.
// Nil fields were absent from the response; absence is not an error.
type Result struct {
	Diagram            *string
	Narrative          *string
	UpdatedDescription *string
}

// The response text grammar: three independent, optional, non-nested,
// case-sensitive delimiter pairs. Content matching is non-greedy and
// first-match-wins.
var (
	diagramPattern     = regexp.MustCompile(`(?s)<MERMAID>(.*?)</MERMAID>`)
	narrativePattern   = regexp.MustCompile(`(?s)<ROOT_CAUSE_STORY>(.*?)</ROOT_CAUSE_STORY>`)
	descriptionPattern = regexp.MustCompile(`(?s)<UPDATED_BUG_DESCRIPTION>(.*?)</UPDATED_BUG_DESCRIPTION>`)
)

// Parse extracts the tagged sections from a raw LLM response. The upstream
// producer is not schema-validated, so the parser never fails: malformed or
// missing tags degrade to absent fields. Captured content is trimmed of
// surrounding whitespace.
func Parse(raw string) Result {
	return Result{
		Diagram:            extract(diagramPattern, raw),
		Narrative:          extract(narrativePattern, raw),
		UpdatedDescription: extract(descriptionPattern, raw),
	}
}

func extract(pattern *regexp.Regexp, raw string) *string {
	match := pattern.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	content := strings.TrimSpace(match[1])
	return &content
}
