package registry

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when releasing a name that was never acquired.
var ErrNotFound = errors.New("registry: name not registered")

// Registry is a name-keyed, reference-counted store of shared instances.
// The first Acquire for a name constructs the instance; later Acquires for
// the same name bump its reference count after the caller's check passes.
// The Release that drops the count to zero removes the entry and runs the
// registry's teardown hook, so teardown order is explicit and testable
// rather than hidden in global state.
type Registry[T any] struct {
	mu       sync.Mutex
	entries  map[string]*entry[T]
	teardown func(T)
}

type entry[T any] struct {
	value T
	refs  int
}

// New creates an empty registry. teardown runs when the last reference to
// an entry is released; it may be nil.
func New[T any](teardown func(T)) *Registry[T] {
	return &Registry[T]{
		entries:  make(map[string]*entry[T]),
		teardown: teardown,
	}
}

// Acquire returns the instance registered under name, bumping its reference
// count. If the name is unknown, create is called under the registry lock and
// the result is registered with a count of one. For an existing entry, check
// (if non-nil) runs first; a check error leaves the entry untouched and is
// returned to the caller.
func (r *Registry[T]) Acquire(name string, create func() (T, error), check func(existing T) error) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[name]; ok {
		if check != nil {
			if err := check(e.value); err != nil {
				var zero T
				return zero, err
			}
		}
		e.refs++
		return e.value, nil
	}

	v, err := create()
	if err != nil {
		var zero T
		return zero, err
	}
	r.entries[name] = &entry[T]{value: v, refs: 1}
	return v, nil
}

// Release drops one reference from name. It reports whether this was the
// last reference, in which case the entry has been removed and the teardown
// hook has run.
func (r *Registry[T]) Release(name string) (last bool, err error) {
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return false, ErrNotFound
	}
	e.refs--
	if e.refs > 0 {
		r.mu.Unlock()
		return false, nil
	}
	delete(r.entries, name)
	r.mu.Unlock()

	// Teardown runs outside the lock: it may log or free blocks and must
	// not be able to deadlock against a concurrent Acquire.
	if r.teardown != nil {
		r.teardown(e.value)
	}
	return true, nil
}

// Refs returns the current reference count for name, or zero if unknown.
func (r *Registry[T]) Refs(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of live entries.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
