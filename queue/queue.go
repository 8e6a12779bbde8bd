// Package queue provides a single-worker FIFO dispatch queue used to
// serialize asynchronous device transactions. One dedicated worker goroutine
// per queue gives strict submission-order, non-overlapping execution;
// Pause/Resume let a synchronous caller take exclusive access to the device
// while dispatch is suspended; Destroy drains every pending job through its
// cancellation path so externally held resources are still released exactly
// once.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/utkarsh5026/devio/internal/cpu"
)

// Queue errors.
var (
	// ErrClosed indicates a submission to a destroyed queue.
	ErrClosed = errors.New("queue is destroyed")

	// ErrInvalidArgument indicates an empty queue name or a job without a
	// callback.
	ErrInvalidArgument = errors.New("invalid argument")
)

// JobQueue dispatches submitted jobs one at a time, in FIFO order, on a
// dedicated worker goroutine. Any number of caller goroutines may
// concurrently Submit, Pause and Resume.
//
// Two independent wait conditions coordinate the parties: the worker parks
// on the list lock's condition until work arrives or the state changes, and
// pausers park on their own condition until the worker reaches Paused — so a
// pauser never contends on the lock the worker uses to pop jobs.
type JobQueue struct {
	name  string
	state atomic.Int32

	listMu   sync.Mutex
	fifo     *queue.Queue // of Job, guarded by listMu
	workCond *sync.Cond   // on listMu; wakes the worker

	pauseMu    sync.Mutex
	pausedCond *sync.Cond // on pauseMu; wakes pausers
	pausers    atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	conf   queueConfig
	logger *slog.Logger

	submitted  atomic.Int64
	dispatched atomic.Int64
	cancelled  atomic.Int64
}

// Stats is a point-in-time snapshot of a queue's counters.
type Stats struct {
	Name       string
	State      State
	Pending    int
	Pausers    int
	Submitted  int64
	Dispatched int64
	Cancelled  int64
}

// New creates a dispatch queue and starts its worker.
//
// Example:
//
//	q, err := queue.New("i2c-0", queue.WithRateLimit(200, 1))
//	if err != nil {
//	    return err
//	}
//	defer q.Destroy()
func New(name string, opts ...Option) (*JobQueue, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty queue name", ErrInvalidArgument)
	}

	cfg := defaultQueueConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &JobQueue{
		name:   name,
		fifo:   queue.New(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		conf:   cfg,
		logger: cfg.logger.With("component", "queue", "queue", name),
	}
	q.workCond = sync.NewCond(&q.listMu)
	q.pausedCond = sync.NewCond(&q.pauseMu)

	go q.worker()
	return q, nil
}

// Submit appends a job to the FIFO and wakes the worker. It never blocks;
// the FIFO is unbounded and the capacity hint only governs backlog warnings.
// Submissions to a destroyed queue fail with ErrClosed.
func (q *JobQueue) Submit(job Job) error {
	if job.Fn == nil {
		return fmt.Errorf("%w: job without callback", ErrInvalidArgument)
	}

	q.listMu.Lock()
	if q.loadState() == StateCancelled {
		q.listMu.Unlock()
		return ErrClosed
	}
	q.fifo.Add(job)
	depth := q.fifo.Length()
	q.workCond.Signal()
	q.listMu.Unlock()

	q.submitted.Add(1)
	if hint := q.conf.capacityHint; hint > 0 && depth == hint+1 {
		q.logger.Warn("pending jobs above capacity hint", "pending", depth, "hint", hint)
	}
	return nil
}

// Pause blocks the caller until the queue reaches Paused or Cancelled,
// giving it exclusive, synchronous access to the device while asynchronous
// dispatch is suspended. Several callers may pause concurrently; dispatch
// resumes only after every one of them has called Resume.
func (q *JobQueue) Pause() {
	q.pausers.Add(1)
	q.kickWorker()

	q.pauseMu.Lock()
	for {
		st := q.loadState()
		if st == StatePaused || st == StateCancelled {
			break
		}
		q.pausedCond.Wait()
	}
	q.pauseMu.Unlock()
}

// Resume releases one Pause. The final Resume transitions Paused back to
// Idle and wakes the worker.
func (q *JobQueue) Resume() {
	n := q.pausers.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		q.pausers.Add(1)
		q.logger.Warn("resume without matching pause")
		return
	}
	if q.casState(StatePaused, StateIdle) {
		q.kickWorker()
	}
}

// Destroy moves the queue to its terminal state and blocks until the worker
// has drained every pending job through its cancellation callback and
// exited. Safe to call more than once; later calls just wait for the drain.
func (q *JobQueue) Destroy() {
	for {
		st := q.loadState()
		if st == StateCancelled {
			break
		}
		if q.casState(st, StateCancelled) {
			break
		}
	}
	q.cancel()
	q.kickWorker()
	q.pauseMu.Lock()
	q.pausedCond.Broadcast()
	q.pauseMu.Unlock()

	<-q.done
}

// worker is the queue's single dedicated execution context. Every state
// transition it performs is one compare-and-swap, so a stale state read only
// costs an extra wait/wake cycle and can never run a job twice or overlap
// two jobs.
func (q *JobQueue) worker() {
	defer close(q.done)

	if q.conf.pinCPU >= 0 {
		unpin := cpu.PinDispatcher(q.conf.pinCPU)
		defer unpin()
	}

	for {
		switch q.loadState() {
		case StateIdle:
			if !q.casState(StateIdle, StateRunning) {
				continue // lost a race; re-observe
			}
			if job, ok := q.pop(); ok {
				q.dispatch(job)
			}
			if q.pausers.Load() > 0 {
				if q.casState(StateRunning, StatePaused) {
					q.pauseMu.Lock()
					q.pausedCond.Broadcast()
					q.pauseMu.Unlock()
				}
			} else {
				q.casState(StateRunning, StateIdle)
			}
			q.waitForWork()

		case StateRunning, StatePaused:
			q.waitForWake()

		case StateCancelled:
			q.drain()
			return
		}
	}
}

// dispatch paces if configured, then invokes the job. A destroy that lands
// between pop and invoke flips the job onto its cancellation path so it is
// never silently dropped.
func (q *JobQueue) dispatch(job Job) {
	if q.conf.rateLimiter != nil {
		_ = q.conf.rateLimiter.Wait(q.ctx)
	}
	if q.loadState() == StateCancelled {
		q.invoke(job, StatusCancelled)
		q.cancelled.Add(1)
		return
	}
	q.invoke(job, StatusRunning)
	q.dispatched.Add(1)
}

// drain pops and cancels every remaining job, then lets the worker exit.
func (q *JobQueue) drain() {
	n := 0
	for {
		job, ok := q.pop()
		if !ok {
			break
		}
		q.invoke(job, StatusCancelled)
		q.cancelled.Add(1)
		n++
	}
	if n > 0 {
		q.logger.Info("drained pending jobs on destroy", "jobs", n)
	}
}

// invoke runs the callback outside all locks. A panicking callback must not
// take the dispatcher down with it.
func (q *JobQueue) invoke(job Job, status Status) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("job callback panicked", "status", status.String(), "panic", r)
		}
	}()
	job.Fn(job.Ctx, status)
}

func (q *JobQueue) pop() (Job, bool) {
	q.listMu.Lock()
	defer q.listMu.Unlock()
	if q.fifo.Length() == 0 {
		return Job{}, false
	}
	return q.fifo.Remove().(Job), true
}

// waitForWork parks the worker until a job arrives, a pauser shows up, or
// the state leaves Idle.
func (q *JobQueue) waitForWork() {
	q.listMu.Lock()
	for q.fifo.Length() == 0 && q.pausers.Load() == 0 && q.loadState() == StateIdle {
		q.workCond.Wait()
	}
	q.listMu.Unlock()
}

// waitForWake parks the worker while the state reads Running or Paused;
// Resume and Destroy signal it.
func (q *JobQueue) waitForWake() {
	q.listMu.Lock()
	for {
		st := q.loadState()
		if st != StateRunning && st != StatePaused {
			break
		}
		q.workCond.Wait()
	}
	q.listMu.Unlock()
}

// kickWorker signals the worker under the list lock so a wakeup can never
// slip between the worker's predicate check and its wait.
func (q *JobQueue) kickWorker() {
	q.listMu.Lock()
	q.workCond.Broadcast()
	q.listMu.Unlock()
}

func (q *JobQueue) loadState() State {
	return State(q.state.Load())
}

func (q *JobQueue) casState(from, to State) bool {
	return q.state.CompareAndSwap(int32(from), int32(to))
}

// Name returns the queue's name.
func (q *JobQueue) Name() string { return q.name }

// State returns the queue's current lifecycle state.
func (q *JobQueue) State() State { return q.loadState() }

// Len returns the number of pending jobs.
func (q *JobQueue) Len() int {
	q.listMu.Lock()
	defer q.listMu.Unlock()
	return q.fifo.Length()
}

// Stats returns a snapshot of the queue's counters.
func (q *JobQueue) Stats() Stats {
	q.listMu.Lock()
	pending := q.fifo.Length()
	q.listMu.Unlock()

	return Stats{
		Name:       q.name,
		State:      q.loadState(),
		Pending:    pending,
		Pausers:    int(q.pausers.Load()),
		Submitted:  q.submitted.Load(),
		Dispatched: q.dispatched.Load(),
		Cancelled:  q.cancelled.Load(),
	}
}
