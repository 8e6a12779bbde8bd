package queue

// State is the dispatch queue's lifecycle state. Transitions move through
// Idle → Running → {Idle, Paused} → Running … and are monotonic toward
// Cancelled: no transition ever leaves Cancelled.
type State int32

const (
	// StateIdle: no job executing, the worker is parked or about to park.
	StateIdle State = iota

	// StateRunning: the worker holds the dispatch slot; at most one job is
	// executing.
	StateRunning

	// StatePaused: dispatch is suspended while pausers hold exclusive
	// access to the device.
	StatePaused

	// StateCancelled: terminal. Pending jobs drain through their
	// cancellation path and new submissions fail.
	StateCancelled
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
