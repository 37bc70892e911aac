package sandbox

// State is the lifecycle state of a sandbox instance. Transitions are
// one-directional except ready/stopped back to idle on reset.
type State int

const (
	StateIdle State = iota
	StateBooting
	StateMounting
	StateStarting
	StateReady
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBooting:
		return "booting"
	case StateMounting:
		return "mounting"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is the controller's externally visible state. URL is set only in
// StateReady; Reason only in StateFailed.
type Status struct {
	State  State
	URL    string
	Reason string
}
