package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bugscope/models"
)

// State is the orchestrator's position in the analysis flow.
type State int

const (
	StateIdle State = iota
	StateAwaitingSelection
	StateConfirming
	StateRequesting
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSelection:
		return "awaiting-selection"
	case StateConfirming:
		return "confirming"
	case StateRequesting:
		return "requesting"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// ErrNoCodeFiles blocks the analyze action when no code files are available
// from the session or upload. Purely a precondition guard; state is
// unchanged.
var ErrNoCodeFiles = errors.New("no code files available for analysis")

// ErrEmptySelection blocks confirm-and-analyze while no files are selected.
var ErrEmptySelection = errors.New("no files selected for analysis")

// InvalidStateError reports an operation called outside its legal state.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Op, e.State)
}

// Orchestrator drives one bug's analysis flow:
//
//	Idle → AwaitingSelection → Confirming → Requesting → Resolved
//
// On gateway failure, Requesting falls back to AwaitingSelection with the
// selection preserved; retry is always user-triggered. From Resolved, exactly
// one of Accept or Reject applies the pending description or discards it,
// returning to Idle either way.
type Orchestrator struct {
	gateway Gateway
	store   BugStore

	mu        sync.Mutex
	state     State
	bug       models.Bug
	available []models.CodeFile
	selected  []models.CodeFile
	events    []models.UIEvent
	pending   *Result
	lastErr   error
}

// NewOrchestrator creates an orchestrator for one bug record.
func NewOrchestrator(gateway Gateway, store BugStore, bug models.Bug) *Orchestrator {
	return &Orchestrator{
		gateway: gateway,
		store:   store,
		state:   StateIdle,
		bug:     bug,
	}
}

// State returns the current flow state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Bug returns the bug record as last seen by the orchestrator.
func (o *Orchestrator) Bug() models.Bug {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.bug
}

// Pending returns the parsed result held for accept/reject, or nil.
func (o *Orchestrator) Pending() *Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// LastError returns the error surfaced by the most recent failed request.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Begin starts a new analysis draft from the available code files (sandbox
// session or uploaded archive) and the captured events. Fails with
// ErrNoCodeFiles when no files exist, leaving state at Idle.
func (o *Orchestrator) Begin(available []models.CodeFile, events []models.UIEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle {
		return &InvalidStateError{Op: "begin analysis", State: o.state}
	}
	if len(available) == 0 {
		return ErrNoCodeFiles
	}
	o.available = available
	o.events = events
	o.selected = nil
	o.state = StateAwaitingSelection
	return nil
}

// Available returns the files the user can pick from.
func (o *Orchestrator) Available() []models.CodeFile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.available
}

// Select records the user's file subset by path, preserving the order of the
// available set. Unknown paths are ignored.
func (o *Orchestrator) Select(paths []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateAwaitingSelection {
		return &InvalidStateError{Op: "select files", State: o.state}
	}
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}
	o.selected = nil
	for _, f := range o.available {
		if want[f.Path] {
			o.selected = append(o.selected, f)
		}
	}
	return nil
}

// Selected returns the current draft selection.
func (o *Orchestrator) Selected() []models.CodeFile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selected
}

// Confirm moves to the read-only recap step.
func (o *Orchestrator) Confirm() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateAwaitingSelection {
		return &InvalidStateError{Op: "confirm", State: o.state}
	}
	o.state = StateConfirming
	return nil
}

// Cancel abandons the draft and returns to Idle, discarding the selection.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateAwaitingSelection || o.state == StateConfirming {
		o.state = StateIdle
		o.selected = nil
	}
}

// Back returns from the recap to file selection, keeping the draft.
func (o *Orchestrator) Back() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateConfirming {
		o.state = StateAwaitingSelection
	}
}

// ConfirmAndAnalyze assembles the context, sends it through the gateway, and
// parses the response. On success the parsed updated description is held
// pending, not applied. On any gateway or transport error the state falls
// back to AwaitingSelection with the selection preserved and the error
// recorded; the bug record is never partially mutated.
func (o *Orchestrator) ConfirmAndAnalyze(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateConfirming {
		o.mu.Unlock()
		return &InvalidStateError{Op: "analyze", State: o.state}
	}
	if len(o.selected) == 0 {
		o.mu.Unlock()
		return ErrEmptySelection
	}
	payload := AssembleBounded(models.AnalysisContext{
		BugDescription: o.bug.Description,
		CodeFiles:      o.selected,
		SessionEvents:  o.events,
	}, DefaultContextLimit)
	o.state = StateRequesting
	o.lastErr = nil
	o.mu.Unlock()

	raw, err := o.gateway.Send(ctx, models.AnalyzeBugWithCodeAndEvents, payload)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.state = StateAwaitingSelection
		o.lastErr = err
		return err
	}

	result := Parse(raw)
	o.pending = &result
	o.state = StateResolved
	return nil
}

// Accept writes the pending updated description into the bug record through
// the external store, then returns to Idle. When the response carried no
// updated description, the record is left untouched. The pending result is
// claimed under the lock before the store call, so a concurrent Accept or
// Reject cannot apply the same resolution twice; on store failure the claim
// is returned and the state stays Resolved.
func (o *Orchestrator) Accept(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateResolved || o.pending == nil {
		state := o.state
		o.mu.Unlock()
		return &InvalidStateError{Op: "accept", State: state}
	}
	pending := o.pending
	bugID := o.bug.ID
	o.pending = nil
	o.mu.Unlock()

	if pending.UpdatedDescription != nil {
		updated, err := o.store.UpdateDescription(ctx, bugID, *pending.UpdatedDescription)
		if err != nil {
			o.mu.Lock()
			if o.state == StateResolved {
				o.pending = pending
			}
			o.mu.Unlock()
			return fmt.Errorf("failed to apply analysis result: %w", err)
		}
		o.mu.Lock()
		o.bug = *updated
		o.mu.Unlock()
	}

	o.mu.Lock()
	o.selected = nil
	o.state = StateIdle
	o.mu.Unlock()
	return nil
}

// Reject discards the pending value and returns to Idle. The original
// description is untouched.
func (o *Orchestrator) Reject() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateResolved || o.pending == nil {
		return &InvalidStateError{Op: "reject", State: o.state}
	}
	o.pending = nil
	o.selected = nil
	o.state = StateIdle
	return nil
}
