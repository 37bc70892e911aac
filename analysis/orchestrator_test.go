package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"bugscope/models"
)

// fakeGateway records the last request and returns a scripted response.
type fakeGateway struct {
	lastType    models.AnalysisRequestType
	lastContent string
	response    string
	err         error
}

func (g *fakeGateway) Send(ctx context.Context, reqType models.AnalysisRequestType, content string) (string, error) {
	g.lastType = reqType
	g.lastContent = content
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

// fakeBugStore records description updates.
type fakeBugStore struct {
	updatedID   string
	updatedDesc string
	err         error
}

func (s *fakeBugStore) UpdateDescription(ctx context.Context, bugID, description string) (*models.Bug, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.updatedID = bugID
	s.updatedDesc = description
	return &models.Bug{ID: bugID, Description: description, Status: "open"}, nil
}

func availableFiles() []models.CodeFile {
	return []models.CodeFile{
		{Path: "src/app.js", Content: "app"},
		{Path: "src/save.js", Content: "save"},
		{Path: "src/util.js", Content: "util"},
	}
}

func sessionEvents() []models.UIEvent {
	return []models.UIEvent{
		{Type: "click", CurrentPath: "/editor", Timestamp: 1000},
	}
}

func newTestOrchestrator(gateway *fakeGateway, store *fakeBugStore) *Orchestrator {
	bug := models.Bug{ID: "bug-1", Description: "App crashes when saving", Status: "open"}
	return NewOrchestrator(gateway, store, bug)
}

func TestBegin_RequiresCodeFiles(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{}, &fakeBugStore{})

	err := o.Begin(nil, sessionEvents())
	if !errors.Is(err, ErrNoCodeFiles) {
		t.Fatalf("expected ErrNoCodeFiles, got %v", err)
	}
	if o.State() != StateIdle {
		t.Errorf("expected state to stay idle, got %v", o.State())
	}
}

func TestBegin_MovesToAwaitingSelection(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{}, &fakeBugStore{})

	if err := o.Begin(availableFiles(), sessionEvents()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if o.State() != StateAwaitingSelection {
		t.Errorf("expected awaiting-selection, got %v", o.State())
	}
	if len(o.Available()) != 3 {
		t.Errorf("expected 3 available files, got %d", len(o.Available()))
	}
}

func TestSelect_FiltersAndPreservesOrder(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{}, &fakeBugStore{})
	o.Begin(availableFiles(), nil)

	// Request order differs from availability order; unknown paths are ignored.
	if err := o.Select([]string{"src/util.js", "src/app.js", "missing.js"}); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	selected := o.Selected()
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected files, got %d", len(selected))
	}
	if selected[0].Path != "src/app.js" || selected[1].Path != "src/util.js" {
		t.Errorf("expected availability order, got %v", selected)
	}
}

func TestCancel_DiscardsDraft(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{}, &fakeBugStore{})
	o.Begin(availableFiles(), nil)
	o.Select([]string{"src/app.js"})

	o.Cancel()
	if o.State() != StateIdle {
		t.Errorf("expected idle after cancel, got %v", o.State())
	}
	if len(o.Selected()) != 0 {
		t.Errorf("expected selection discarded, got %v", o.Selected())
	}
}

func TestConfirmAndAnalyze_RequiresSelection(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{}, &fakeBugStore{})
	o.Begin(availableFiles(), nil)
	o.Confirm()

	err := o.ConfirmAndAnalyze(context.Background())
	if !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
}

func TestFullAcceptCycle(t *testing.T) {
	gateway := &fakeGateway{
		response: `<MERMAID>flowchart TD
    A[Save click] --> B[Null token crash]</MERMAID>
<ROOT_CAUSE_STORY>The save handler reads a token captured before refresh.</ROOT_CAUSE_STORY>
<UPDATED_BUG_DESCRIPTION>Crash occurs because the save handler dereferences a null session token after token refresh.</UPDATED_BUG_DESCRIPTION>`,
	}
	store := &fakeBugStore{}
	o := newTestOrchestrator(gateway, store)

	if err := o.Begin(availableFiles(), sessionEvents()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := o.Select([]string{"src/app.js", "src/save.js"}); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := o.Confirm(); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if err := o.ConfirmAndAnalyze(context.Background()); err != nil {
		t.Fatalf("ConfirmAndAnalyze failed: %v", err)
	}

	if gateway.lastType != models.AnalyzeBugWithCodeAndEvents {
		t.Errorf("unexpected request type: %s", gateway.lastType)
	}
	if !strings.Contains(gateway.lastContent, "App crashes when saving") {
		t.Error("expected bug description in payload")
	}
	if !strings.Contains(gateway.lastContent, "### src/save.js") {
		t.Error("expected selected file in payload")
	}
	if strings.Contains(gateway.lastContent, "### src/util.js") {
		t.Error("expected unselected file to be excluded from payload")
	}

	if o.State() != StateResolved {
		t.Fatalf("expected resolved, got %v", o.State())
	}
	pending := o.Pending()
	if pending == nil || pending.UpdatedDescription == nil {
		t.Fatal("expected pending updated description")
	}

	// Nothing is written until the user accepts.
	if store.updatedID != "" {
		t.Error("expected no store write before accept")
	}

	if err := o.Accept(context.Background()); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	if store.updatedID != "bug-1" {
		t.Errorf("expected bug-1 to be updated, got %q", store.updatedID)
	}
	if !strings.Contains(store.updatedDesc, "null session token") {
		t.Errorf("unexpected description written: %q", store.updatedDesc)
	}
	if o.Bug().Description != store.updatedDesc {
		t.Error("expected orchestrator bug record to reflect the update")
	}
	if o.State() != StateIdle {
		t.Errorf("expected idle after accept, got %v", o.State())
	}
	if o.Pending() != nil {
		t.Error("expected pending cleared after accept")
	}
}

func TestReject_LeavesDescriptionUntouched(t *testing.T) {
	gateway := &fakeGateway{
		response: "<UPDATED_BUG_DESCRIPTION>proposed</UPDATED_BUG_DESCRIPTION>",
	}
	store := &fakeBugStore{}
	o := newTestOrchestrator(gateway, store)

	o.Begin(availableFiles(), nil)
	o.Select([]string{"src/app.js"})
	o.Confirm()
	if err := o.ConfirmAndAnalyze(context.Background()); err != nil {
		t.Fatalf("ConfirmAndAnalyze failed: %v", err)
	}

	if err := o.Reject(); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	if store.updatedID != "" {
		t.Error("expected no store write on reject")
	}
	if o.Bug().Description != "App crashes when saving" {
		t.Errorf("expected original description preserved, got %q", o.Bug().Description)
	}
	if o.State() != StateIdle {
		t.Errorf("expected idle after reject, got %v", o.State())
	}

	// Accept after reject is invalid; the resolution is spent.
	var stateErr *InvalidStateError
	if err := o.Accept(context.Background()); !errors.As(err, &stateErr) {
		t.Fatalf("expected *InvalidStateError, got %v", err)
	}
}

func TestGatewayError_FallsBackToSelection(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("backend unavailable")}
	o := newTestOrchestrator(gateway, &fakeBugStore{})

	o.Begin(availableFiles(), nil)
	o.Select([]string{"src/app.js", "src/save.js"})
	o.Confirm()

	err := o.ConfirmAndAnalyze(context.Background())
	if err == nil {
		t.Fatal("expected gateway error")
	}

	if o.State() != StateAwaitingSelection {
		t.Errorf("expected fallback to awaiting-selection, got %v", o.State())
	}
	// The draft selection survives the failure for a user-triggered retry.
	if len(o.Selected()) != 2 {
		t.Errorf("expected selection preserved, got %v", o.Selected())
	}
	if o.LastError() == nil {
		t.Error("expected last error recorded")
	}

	// Retry succeeds after the backend recovers.
	gateway.err = nil
	gateway.response = "<ROOT_CAUSE_STORY>recovered</ROOT_CAUSE_STORY>"
	if err := o.Confirm(); err != nil {
		t.Fatalf("Confirm after fallback failed: %v", err)
	}
	if err := o.ConfirmAndAnalyze(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if o.State() != StateResolved {
		t.Errorf("expected resolved after retry, got %v", o.State())
	}
}

func TestAccept_NoUpdatedDescriptionSkipsStore(t *testing.T) {
	gateway := &fakeGateway{
		response: "<ROOT_CAUSE_STORY>story only</ROOT_CAUSE_STORY>",
	}
	store := &fakeBugStore{}
	o := newTestOrchestrator(gateway, store)

	o.Begin(availableFiles(), nil)
	o.Select([]string{"src/app.js"})
	o.Confirm()
	if err := o.ConfirmAndAnalyze(context.Background()); err != nil {
		t.Fatalf("ConfirmAndAnalyze failed: %v", err)
	}

	if err := o.Accept(context.Background()); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if store.updatedID != "" {
		t.Error("expected no store write when response carried no description")
	}
	if o.State() != StateIdle {
		t.Errorf("expected idle, got %v", o.State())
	}
}

func TestStoreFailure_KeepsResolvedState(t *testing.T) {
	gateway := &fakeGateway{
		response: "<UPDATED_BUG_DESCRIPTION>proposed</UPDATED_BUG_DESCRIPTION>",
	}
	store := &fakeBugStore{err: errors.New("store down")}
	o := newTestOrchestrator(gateway, store)

	o.Begin(availableFiles(), nil)
	o.Select([]string{"src/app.js"})
	o.Confirm()
	if err := o.ConfirmAndAnalyze(context.Background()); err != nil {
		t.Fatalf("ConfirmAndAnalyze failed: %v", err)
	}

	if err := o.Accept(context.Background()); err == nil {
		t.Fatal("expected store error to surface")
	}

	// The pending result is still there; the user can retry or reject.
	if o.State() != StateResolved {
		t.Errorf("expected resolved preserved on store failure, got %v", o.State())
	}
	if o.Pending() == nil {
		t.Error("expected pending preserved on store failure")
	}
	if o.Bug().Description != "App crashes when saving" {
		t.Error("expected original description untouched on store failure")
	}
}

// blockingBugStore holds every update open until released, exposing the
// window between the accept guard and the store write.
type blockingBugStore struct {
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (s *blockingBugStore) UpdateDescription(ctx context.Context, bugID, description string) (*models.Bug, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	s.entered <- struct{}{}
	<-s.release
	return &models.Bug{ID: bugID, Description: description, Status: "open"}, nil
}

func TestAccept_ConcurrentSecondCallRejected(t *testing.T) {
	gateway := &fakeGateway{
		response: "<UPDATED_BUG_DESCRIPTION>proposed</UPDATED_BUG_DESCRIPTION>",
	}
	store := &blockingBugStore{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	bug := models.Bug{ID: "bug-1", Description: "App crashes when saving", Status: "open"}
	o := NewOrchestrator(gateway, store, bug)

	o.Begin(availableFiles(), nil)
	o.Select([]string{"src/app.js"})
	o.Confirm()
	if err := o.ConfirmAndAnalyze(context.Background()); err != nil {
		t.Fatalf("ConfirmAndAnalyze failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- o.Accept(context.Background()) }()
	<-store.entered

	// The first accept is mid-write; a second accept must not reach the store.
	var stateErr *InvalidStateError
	if err := o.Accept(context.Background()); !errors.As(err, &stateErr) {
		t.Errorf("expected *InvalidStateError from concurrent accept, got %v", err)
	}
	if err := o.Reject(); !errors.As(err, &stateErr) {
		t.Errorf("expected *InvalidStateError from concurrent reject, got %v", err)
	}

	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	if store.calls != 1 {
		t.Errorf("expected exactly one store write, got %d", store.calls)
	}
	if o.State() != StateIdle {
		t.Errorf("expected idle after accept, got %v", o.State())
	}
}

func TestInvalidStateTransitions(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{}, &fakeBugStore{})

	var stateErr *InvalidStateError
	if err := o.Select([]string{"x"}); !errors.As(err, &stateErr) {
		t.Errorf("expected *InvalidStateError from Select at idle, got %v", err)
	}
	if err := o.Confirm(); !errors.As(err, &stateErr) {
		t.Errorf("expected *InvalidStateError from Confirm at idle, got %v", err)
	}
	if err := o.ConfirmAndAnalyze(context.Background()); !errors.As(err, &stateErr) {
		t.Errorf("expected *InvalidStateError from analyze at idle, got %v", err)
	}
	if err := o.Reject(); !errors.As(err, &stateErr) {
		t.Errorf("expected *InvalidStateError from Reject at idle, got %v", err)
	}
}
