// Package models provides the data structures shared across the Bugscope
// client, the reproduction pipeline, and the CLI.
package models

// CodeFile is a single source file extracted from an uploaded archive or read
// back out of a sandbox. Paths are forward-slash relative with no leading
// slash. A set of CodeFile is keyed by Path.
type CodeFile struct {
	Path    string `json:"path" yaml:"path"`
	Content string `json:"content" yaml:"content"`
}

// TerminalLineKind distinguishes echoed commands from process output.
type TerminalLineKind string

const (
	TerminalCommand TerminalLineKind = "command"
	TerminalOutput  TerminalLineKind = "output"
)

// TerminalLine is one line of the sandbox terminal transcript. Lines are
// append-only and never mutated after emission.
type TerminalLine struct {
	Kind TerminalLineKind `json:"kind"`
	Text string           `json:"text"`
}

// EventTarget describes the DOM element a captured UI event was dispatched on.
type EventTarget struct {
	TagName   string `json:"tagName"`
	ID        string `json:"id"`
	ClassName string `json:"className"`
}

// UIEvent is the canonical captured event produced by the event bridge.
// Timestamp is host-side receipt time in epoch milliseconds; the origin clock
// inside the sandbox is not trusted.
type UIEvent struct {
	Type        string       `json:"type"`
	Target      *EventTarget `json:"target,omitempty"`
	CurrentPath string       `json:"currentPath"`
	Timestamp   int64        `json:"timestamp"`
	Details     string       `json:"details,omitempty"`
}

// Equal reports structural equality of two events, including timestamps.
// The bridge uses this to drop transport-level double deliveries.
func (e UIEvent) Equal(other UIEvent) bool {
	if e.Type != other.Type || e.CurrentPath != other.CurrentPath ||
		e.Timestamp != other.Timestamp || e.Details != other.Details {
		return false
	}
	if (e.Target == nil) != (other.Target == nil) {
		return false
	}
	if e.Target != nil && *e.Target != *other.Target {
		return false
	}
	return true
}

// Bug is a bug record owned by the external store. The pipeline reads
// identity fields and patches Description only.
type Bug struct {
	ID          string `json:"id" yaml:"id"`
	ProjectID   string `json:"project_id" yaml:"project_id"`
	Description string `json:"description" yaml:"description"`
	Status      string `json:"status" yaml:"status"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
	UserID      string `json:"user_id" yaml:"user_id"`
}

// BugPatch is a partial update to a bug record. Nil fields are left unchanged.
type BugPatch struct {
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// Project is a project record with a repository pointer and an optional
// environment-variable blob (newline-separated KEY=value pairs).
type Project struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	RepoURL string `json:"repo_url" yaml:"repo_url"`
	EnvVars string `json:"env_vars,omitempty" yaml:"env_vars,omitempty"`
}

// User is the current authenticated user as reported by the identity provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AnalysisContext is the ephemeral payload assembled for one analysis
// request. Constructed fresh per request and never persisted.
type AnalysisContext struct {
	BugDescription string
	CodeFiles      []CodeFile
	SessionEvents  []UIEvent
}

// AnalysisRequestType is the discriminant sent with every LLM gateway request.
type AnalysisRequestType string

const (
	IdentifyRelevantFiles       AnalysisRequestType = "IDENTIFY_RELEVANT_FILES"
	StoryAnalysis               AnalysisRequestType = "STORY_ANALYSIS"
	AnalyzeBugWithCodeAndEvents AnalysisRequestType = "ANALYZE_BUG_WITH_CODE_AND_EVENTS"
)
