package queue

// Status tells a job's callback why it is being invoked.
type Status int

const (
	// StatusRunning means the dispatcher popped the job for its normal
	// action.
	StatusRunning Status = iota

	// StatusCancelled means the queue is being destroyed; the callback must
	// release whatever resources the job references instead of performing
	// its action.
	StatusCancelled
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Callback is the work a job performs. ctx is the opaque per-job context
// supplied at submission (typically a transaction block acquired from a
// pool); the callback owns releasing it, on the normal and the cancelled
// path alike.
type Callback func(ctx any, status Status)

// Job is one unit of queued work. It is invoked exactly once: either with
// StatusRunning by the dispatcher or with StatusCancelled during drain.
type Job struct {
	Fn  Callback
	Ctx any
}
