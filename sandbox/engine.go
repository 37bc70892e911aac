// Package sandbox owns the lifecycle of one sandboxed execution environment:
// boot, mount a file tree, spawn the project's start command, stream process
// output, detect the server-ready signal, and tear down.
package sandbox

import (
	"context"
	"errors"
	"fmt"

	"bugscope/models"
)

// ReadySignal is the engine's listening notification: the sandboxed app has
// bound a port and is reachable at URL.
type ReadySignal struct {
	Port int
	URL  string
}

// Process is a running command inside the sandbox. Output delivers lines in
// emission order; Ready delivers listening notifications. Both channels are
// closed when the process exits.
type Process interface {
	Output() <-chan string
	Ready() <-chan ReadySignal
	Kill() error
}

// Engine is the narrow interface over the concrete sandbox runtime. The
// controller is the only caller; adapting an engine behind this interface
// isolates the one genuinely foreign dependency.
type Engine interface {
	Boot(ctx context.Context) error
	Mount(ctx context.Context, tree models.FileTree) error
	WriteFile(ctx context.Context, path, content string) error
	Spawn(ctx context.Context, command string) (Process, error)
	ReadFile(path string) (string, error)
	ListFiles() ([]string, error)
	Teardown() error
}

// BootError indicates the underlying engine could not start. The sandbox
// instance is unusable and must be discarded.
type BootError struct {
	Err error
}

func (e *BootError) Error() string {
	return fmt.Sprintf("sandbox boot failed: %v", e.Err)
}

func (e *BootError) Unwrap() error { return e.Err }

// MountError indicates the engine rejected the file tree write. Terminal for
// this sandbox instance.
type MountError struct {
	Err error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("sandbox mount failed: %v", e.Err)
}

func (e *MountError) Unwrap() error { return e.Err }

// ErrNotInitialized is returned when a lifecycle operation is called before
// Initialize has succeeded.
var ErrNotInitialized = errors.New("sandbox is not initialized")

// ErrAlreadyRunning is returned when Start is called while a process is
// already running. Calling Start twice is a caller error, not a retry path.
var ErrAlreadyRunning = errors.New("sandbox process is already running")

// FileNotFoundError is returned by ReadFile for unknown paths.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found in sandbox: %s", e.Path)
}
