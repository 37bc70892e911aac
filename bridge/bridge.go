// Package bridge is the message channel between the sandboxed application's
// preview surface and the host. Raw cross-boundary messages are normalized
// into canonical UI events and deduplicated per session.
package bridge

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"bugscope/models"
)

// uiEventType is the only raw message type the bridge consumes; everything
// else crossing the boundary is dropped.
const uiEventType = "UI_EVENT"

// RawMessage is the wire shape of a cross-boundary bridge message.
type RawMessage struct {
	Type    string     `json:"type"`
	Payload RawPayload `json:"payload"`
}

// RawPayload carries the vendor event shape and the preview's current path.
type RawPayload struct {
	EventDetails RawEventDetails `json:"eventDetails"`
	CurrentPath  string          `json:"currentPath"`
}

// RawEventDetails is the untrusted event description from inside the sandbox.
type RawEventDetails struct {
	Type   string              `json:"type"`
	Target *models.EventTarget `json:"target"`
	Extra  json.RawMessage     `json:"extra,omitempty"`
}

// Bridge normalizes raw messages and owns the session's deduplicating event
// set. The set is cleared when a new sandbox session starts.
type Bridge struct {
	mu   sync.Mutex
	seen []models.UIEvent
	now  func() time.Time
}

// New creates a bridge using the host wall clock for event timestamps.
func New() *Bridge {
	return &Bridge{now: time.Now}
}

// NewWithClock creates a bridge with an injected clock, for tests.
func NewWithClock(now func() time.Time) *Bridge {
	return &Bridge{now: now}
}

// Normalize converts one raw message into a canonical event. Returns
// (event, true) when the message is a UI event that has not been seen before
// this session; (zero, false) when the message is untyped, foreign, or an
// exact duplicate. The timestamp is host-side receipt time; the origin clock
// is untrusted.
func (b *Bridge) Normalize(raw RawMessage) (models.UIEvent, bool) {
	if raw.Type != uiEventType {
		return models.UIEvent{}, false
	}

	event := models.UIEvent{
		Type:        raw.Payload.EventDetails.Type,
		Target:      raw.Payload.EventDetails.Target,
		CurrentPath: raw.Payload.CurrentPath,
		Timestamp:   b.now().UnixMilli(),
		Details:     string(raw.Payload.EventDetails.Extra),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, prev := range b.seen {
		if prev.Equal(event) {
			return models.UIEvent{}, false
		}
	}
	b.seen = append(b.seen, event)
	return event, true
}

// NormalizeJSON decodes and normalizes one raw message body. Undecodable
// bodies are dropped, matching the tolerance of the rest of the pipeline
// toward sandbox-originated data.
func (b *Bridge) NormalizeJSON(data []byte) (models.UIEvent, bool) {
	var raw RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.UIEvent{}, false
	}
	return b.Normalize(raw)
}

// Events returns the captured events sorted chronologically for display.
// Receipt order is preserved in the underlying set.
func (b *Bridge) Events() []models.UIEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := make([]models.UIEvent, len(b.seen))
	copy(events, b.seen)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})
	return events
}

// Len returns the number of distinct events captured this session.
func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.seen)
}

// Reset clears the deduplicating set at a session boundary.
func (b *Bridge) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seen = nil
}
