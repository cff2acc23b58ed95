package controller

// State is the lifecycle position of the child process. Transitions are
// monotonic: a state is never re-entered.
type State int32

const (
	// StateUninitialized means no LOAD has been accepted yet.
	StateUninitialized State = iota
	// StateLoaded means the extension is loaded and awaiting START.
	StateLoaded
	// StateRunning means the bridge is published and serving.
	StateRunning
	// StateShuttingDown means teardown has begun.
	StateShuttingDown
	// StateTerminated means teardown has completed.
	StateTerminated
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoaded:
		return "loaded"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
