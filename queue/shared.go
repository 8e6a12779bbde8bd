package queue

import (
	"sync"

	"github.com/utkarsh5026/devio/internal/registry"
)

var (
	sharedOnce sync.Once
	shared     *registry.Registry[*JobQueue]
)

func sharedQueues() *registry.Registry[*JobQueue] {
	sharedOnce.Do(func() {
		shared = registry.New(func(q *JobQueue) { q.Destroy() })
	})
	return shared
}

// Shared returns the process-wide queue registered under name, creating it
// on first use so independent call sites serialize against the same device.
// Options are honored only by the call that creates the queue. Every Shared
// must be balanced by a ReleaseShared; the last release destroys the queue,
// draining anything still pending.
func Shared(name string, opts ...Option) (*JobQueue, error) {
	return sharedQueues().Acquire(name, func() (*JobQueue, error) {
		return New(name, opts...)
	}, nil)
}

// ReleaseShared drops one reference to the named shared queue.
func ReleaseShared(name string) error {
	_, err := sharedQueues().Release(name)
	return err
}
