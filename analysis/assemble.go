// Package analysis ties the reproduction pipeline together: it assembles the
// analysis context into one prompt payload, sends it through the LLM
// gateway, parses the delimited response, and drives the confirm/request/
// accept-reject state machine.
package analysis

import (
	"fmt"
	"strings"

	"bugscope/models"
)

// DefaultContextLimit bounds the assembled payload. Oversized codebases are
// truncated with a notice rather than sent unbounded.
const DefaultContextLimit = 256 * 1024

const truncationNotice = "\n\n[context truncated: size limit reached]"

// Assemble serializes a bug description, the selected code files, and the
// captured session events into one prompt body. Pure and deterministic:
// identical inputs produce byte-identical output, and file order is
// preserved as given.
func Assemble(ctx models.AnalysisContext) string {
	var b strings.Builder

	b.WriteString("## Bug Description\n\n")
	b.WriteString(ctx.BugDescription)
	b.WriteString("\n\n## File Structure\n\n")
	for _, f := range ctx.CodeFiles {
		b.WriteString(f.Path)
		b.WriteString("\n")
	}

	b.WriteString("\n## File Contents\n")
	for _, f := range ctx.CodeFiles {
		fmt.Fprintf(&b, "\n### %s\n\n%s\n", f.Path, f.Content)
	}

	b.WriteString("\n## Session Events\n\n")
	if len(ctx.SessionEvents) == 0 {
		b.WriteString("(no events captured)\n")
	}
	for _, e := range ctx.SessionEvents {
		fmt.Fprintf(&b, "- [%d] %s at %s", e.Timestamp, e.Type, e.CurrentPath)
		if e.Target != nil {
			fmt.Fprintf(&b, " on <%s id=%q class=%q>", e.Target.TagName, e.Target.ID, e.Target.ClassName)
		}
		if e.Details != "" {
			fmt.Fprintf(&b, " %s", e.Details)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// AssembleBounded assembles the context and enforces a byte cap. When the
// payload exceeds limit, it is cut at the limit (minus the notice) and the
// truncation notice is appended, keeping the result at or under limit.
func AssembleBounded(ctx models.AnalysisContext, limit int) string {
	payload := Assemble(ctx)
	if limit <= 0 || len(payload) <= limit {
		return payload
	}
	cut := limit - len(truncationNotice)
	if cut < 0 {
		cut = 0
	}
	// Back off to a rune boundary so the cut never splits a character.
	for cut > 0 && payload[cut]&0xC0 == 0x80 {
		cut--
	}
	return payload[:cut] + truncationNotice
}
