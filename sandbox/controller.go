package sandbox

import (
	"context"
	"sync"

	"bugscope/models"
)

const envFileName = ".env"

// Event is a push notification from the controller: either a status
// transition or one line of process output.
type Event interface {
	isEvent()
}

// StatusEvent reports a status transition.
type StatusEvent struct {
	Status Status
}

func (StatusEvent) isEvent() {}

// OutputEvent carries one terminal line from the running process.
type OutputEvent struct {
	Line models.TerminalLine
}

func (OutputEvent) isEvent() {}

// Controller owns one sandbox instance. At most one instance is live per
// reproduction session; boot, mount, and start failures are terminal for the
// instance and the caller must create a new one. The controller never
// retries on its own.
type Controller struct {
	engine Engine

	mu          sync.Mutex
	status      Status
	initialized bool
	mounted     bool
	proc        Process

	events chan Event
}

// NewController wraps an engine. Status and output notifications flow
// through the Events channel; the buffer is generous so transitions are
// retained even before a consumer attaches.
func NewController(engine Engine) *Controller {
	return &Controller{
		engine: engine,
		status: Status{State: StateIdle},
		events: make(chan Event, 512),
	}
}

// Events returns the notification channel. Single consumer; drained by the
// session view.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Status returns the current lifecycle status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// setStatus transitions and notifies. Status events are never dropped: when
// the buffer is full the oldest queued event is evicted to make room.
func (c *Controller) setStatus(status Status) {
	c.status = status
	for {
		select {
		case c.events <- StatusEvent{Status: status}:
			return
		default:
			select {
			case <-c.events:
			default:
			}
		}
	}
}

// emitOutput queues one terminal line. Output lines are droppable under
// backpressure; status transitions are not.
func (c *Controller) emitOutput(line models.TerminalLine) {
	select {
	case c.events <- OutputEvent{Line: line}:
	default:
	}
}

// Initialize boots the sandboxed runtime.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	c.setStatus(Status{State: StateBooting})
	c.mu.Unlock()

	if err := c.engine.Boot(ctx); err != nil {
		bootErr := &BootError{Err: err}
		c.mu.Lock()
		c.setStatus(Status{State: StateFailed, Reason: bootErr.Error()})
		c.mu.Unlock()
		return bootErr
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()
	return nil
}

// Mount writes the file tree into the sandbox filesystem. When env is
// non-empty it is written as the dedicated environment file before the app
// starts. Requires a successful Initialize.
func (c *Controller) Mount(ctx context.Context, tree models.FileTree, env string) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	c.setStatus(Status{State: StateMounting})
	c.mu.Unlock()

	if err := c.engine.Mount(ctx, tree); err != nil {
		mountErr := &MountError{Err: err}
		c.mu.Lock()
		c.setStatus(Status{State: StateFailed, Reason: mountErr.Error()})
		c.mu.Unlock()
		return mountErr
	}

	if env != "" {
		if err := c.engine.WriteFile(ctx, envFileName, env); err != nil {
			mountErr := &MountError{Err: err}
			c.mu.Lock()
			c.setStatus(Status{State: StateFailed, Reason: mountErr.Error()})
			c.mu.Unlock()
			return mountErr
		}
	}

	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()
	return nil
}

// Start spawns the project's start command and begins streaming its output.
// The first ready notification is authoritative; later ones for the same
// session are ignored. Calling Start while a process is running is a caller
// error.
func (c *Controller) Start(ctx context.Context, command string) error {
	c.mu.Lock()
	if !c.initialized || !c.mounted {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	if c.proc != nil || c.status.State == StateReady {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.setStatus(Status{State: StateStarting})
	c.emitOutput(models.TerminalLine{Kind: models.TerminalCommand, Text: command})
	c.mu.Unlock()

	proc, err := c.engine.Spawn(ctx, command)
	if err != nil {
		c.mu.Lock()
		c.setStatus(Status{State: StateFailed, Reason: err.Error()})
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.proc = proc
	c.mu.Unlock()

	go c.pump(proc)
	return nil
}

// pump forwards process output and promotes the first ready signal to
// StateReady. Runs until both channels close.
func (c *Controller) pump(proc Process) {
	output := proc.Output()
	ready := proc.Ready()

	for output != nil || ready != nil {
		select {
		case line, ok := <-output:
			if !ok {
				output = nil
				continue
			}
			c.mu.Lock()
			c.emitOutput(models.TerminalLine{Kind: models.TerminalOutput, Text: line})
			c.mu.Unlock()
		case signal, ok := <-ready:
			if !ok {
				ready = nil
				continue
			}
			c.mu.Lock()
			if c.status.State == StateStarting {
				c.setStatus(Status{State: StateReady, URL: signal.URL})
			}
			c.mu.Unlock()
		}
	}
}

// Stop terminates the running process if any and resets status to stopped.
// Safe to call when nothing is running.
func (c *Controller) Stop() error {
	c.mu.Lock()
	proc := c.proc
	c.proc = nil
	c.mu.Unlock()

	var err error
	if proc != nil {
		err = proc.Kill()
	}

	c.mu.Lock()
	c.setStatus(Status{State: StateStopped})
	c.mu.Unlock()
	return err
}

// Reset tears the instance down and returns to idle so a new session can
// boot. Only valid from ready or stopped.
func (c *Controller) Reset() error {
	if err := c.Stop(); err != nil {
		return err
	}

	err := c.engine.Teardown()

	c.mu.Lock()
	c.initialized = false
	c.mounted = false
	c.setStatus(Status{State: StateIdle})
	c.mu.Unlock()
	return err
}

// ReadFile reads one file back out of the sandbox filesystem. Used after a
// session to let the user pick files for analysis.
func (c *Controller) ReadFile(path string) (string, error) {
	c.mu.Lock()
	initialized := c.initialized
	c.mu.Unlock()
	if !initialized {
		return "", ErrNotInitialized
	}
	return c.engine.ReadFile(path)
}

// ListFiles lists every file path in the sandbox filesystem.
func (c *Controller) ListFiles() ([]string, error) {
	c.mu.Lock()
	initialized := c.initialized
	c.mu.Unlock()
	if !initialized {
		return nil, ErrNotInitialized
	}
	return c.engine.ListFiles()
}
