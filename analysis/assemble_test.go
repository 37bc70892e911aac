package analysis

import (
	"strings"
	"testing"
	"unicode/utf8"

	"bugscope/models"
)

func sampleContext() models.AnalysisContext {
	return models.AnalysisContext{
		BugDescription: "Save button crashes the app",
		CodeFiles: []models.CodeFile{
			{Path: "src/app.js", Content: "const app = 1"},
			{Path: "src/save.js", Content: "function save() {}"},
		},
		SessionEvents: []models.UIEvent{
			{Type: "click", Target: &models.EventTarget{TagName: "BUTTON", ID: "save"}, CurrentPath: "/editor", Timestamp: 1000},
			{Type: "input", CurrentPath: "/editor", Timestamp: 2000, Details: `{"value":"x"}`},
		},
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	ctx := sampleContext()

	first := Assemble(ctx)
	second := Assemble(ctx)
	if first != second {
		t.Error("expected identical inputs to produce byte-identical output")
	}
}

func TestAssemble_ContainsAllSections(t *testing.T) {
	payload := Assemble(sampleContext())

	for _, want := range []string{
		"## Bug Description",
		"Save button crashes the app",
		"## File Structure",
		"## File Contents",
		"### src/app.js",
		"const app = 1",
		"### src/save.js",
		"function save() {}",
		"## Session Events",
		"click",
		`id="save"`,
		`{"value":"x"}`,
	} {
		if !strings.Contains(payload, want) {
			t.Errorf("payload missing %q", want)
		}
	}
}

func TestAssemble_PreservesFileOrder(t *testing.T) {
	ctx := models.AnalysisContext{
		BugDescription: "bug",
		CodeFiles: []models.CodeFile{
			{Path: "z.js", Content: "z"},
			{Path: "a.js", Content: "a"},
		},
	}

	payload := Assemble(ctx)
	if strings.Index(payload, "### z.js") > strings.Index(payload, "### a.js") {
		t.Error("expected caller order to be preserved, not sorted")
	}
}

func TestAssemble_NoEvents(t *testing.T) {
	ctx := sampleContext()
	ctx.SessionEvents = nil

	payload := Assemble(ctx)
	if !strings.Contains(payload, "(no events captured)") {
		t.Error("expected empty-events placeholder")
	}
}

func TestAssembleBounded_UnderLimitUnchanged(t *testing.T) {
	ctx := sampleContext()

	full := Assemble(ctx)
	bounded := AssembleBounded(ctx, len(full)+100)
	if bounded != full {
		t.Error("expected payload under the limit to pass through unchanged")
	}
}

func TestAssembleBounded_Truncates(t *testing.T) {
	ctx := models.AnalysisContext{
		BugDescription: "bug",
		CodeFiles: []models.CodeFile{
			{Path: "big.js", Content: strings.Repeat("x", 4096)},
		},
	}

	limit := 512
	bounded := AssembleBounded(ctx, limit)
	if len(bounded) > limit {
		t.Errorf("expected payload at or under %d bytes, got %d", limit, len(bounded))
	}
	if !strings.HasSuffix(bounded, truncationNotice) {
		t.Error("expected truncation notice suffix")
	}
}

func TestAssembleBounded_CutsOnRuneBoundary(t *testing.T) {
	ctx := models.AnalysisContext{
		BugDescription: "bug",
		CodeFiles: []models.CodeFile{
			{Path: "i18n.js", Content: strings.Repeat("é", 2048)},
		},
	}

	bounded := AssembleBounded(ctx, 512)
	if !utf8.ValidString(bounded) {
		t.Error("expected truncated payload to remain valid UTF-8")
	}
}
