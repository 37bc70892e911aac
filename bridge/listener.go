package bridge

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"bugscope/models"
)

// Listener attaches the bridge to an SSE stream of raw messages from the
// preview surface. Attach and Detach are idempotent: the listener is
// registered for the lifetime of one session view and removed exactly once
// on unmount, surviving remounts without double registration.
type Listener struct {
	bridge  *Bridge
	onEvent func(models.UIEvent)

	mu       sync.Mutex
	attached bool
	cancel   context.CancelFunc
}

// NewListener creates a listener that forwards each newly captured event to
// onEvent. onEvent may be nil when the caller only polls Bridge.Events.
func NewListener(bridge *Bridge, onEvent func(models.UIEvent)) *Listener {
	return &Listener{bridge: bridge, onEvent: onEvent}
}

// Attach begins consuming the stream in the background. A second Attach on
// an already attached listener is a no-op.
func (l *Listener) Attach(ctx context.Context, stream io.Reader) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.attached {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.attached = true
	l.cancel = cancel
	go l.consume(ctx, stream)
}

// Attached reports whether the listener is currently consuming a stream.
func (l *Listener) Attached() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attached
}

// Detach stops consumption. Safe to call repeatedly.
func (l *Listener) Detach() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.attached {
		return
	}
	l.attached = false
	l.cancel()
}

// consume reads SSE "data: {json}" lines until the stream ends or the
// listener detaches. Malformed lines are skipped.
func (l *Listener) consume(ctx context.Context, stream io.Reader) {
	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		jsonData := strings.TrimPrefix(line, "data: ")

		if event, ok := l.bridge.NormalizeJSON([]byte(jsonData)); ok && l.onEvent != nil {
			l.onEvent(event)
		}
	}
}
