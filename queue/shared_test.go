package queue

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestShared_SameNameSharesInstance(t *testing.T) {
	name := t.Name()

	a, err := Shared(name, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Shared: %v", err)
	}
	b, err := Shared(name)
	if err != nil {
		t.Fatalf("Shared: %v", err)
	}
	if a != b {
		t.Fatal("expected both call sites to share one queue")
	}

	// First release keeps the queue alive for the second holder.
	if err := ReleaseShared(name); err != nil {
		t.Fatalf("ReleaseShared: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	if err := b.Submit(Job{Fn: func(any, Status) { wg.Done() }}); err != nil {
		t.Fatalf("queue unusable after first release: %v", err)
	}
	wg.Wait()

	// Last release destroys it.
	if err := ReleaseShared(name); err != nil {
		t.Fatalf("ReleaseShared: %v", err)
	}
	if err := b.Submit(Job{Fn: func(any, Status) {}}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after last release, got %v", err)
	}
}

func TestShared_LastReleaseDrainsPending(t *testing.T) {
	name := t.Name()

	q, err := Shared(name, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Shared: %v", err)
	}

	gate := make(chan struct{})
	started := make(chan struct{})
	if err := q.Submit(Job{Fn: func(any, Status) {
		close(started)
		<-gate
	}}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	<-started

	cancelled := make(chan Status, 1)
	if err := q.Submit(Job{Fn: func(_ any, status Status) { cancelled <- status }}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(gate)
	}()
	if err := ReleaseShared(name); err != nil {
		t.Fatalf("ReleaseShared: %v", err)
	}

	select {
	case status := <-cancelled:
		if status != StatusCancelled {
			t.Errorf("expected cancelled status, got %v", status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending job was dropped instead of drained")
	}
}

func TestReleaseShared_UnknownName(t *testing.T) {
	if err := ReleaseShared("never-created"); err == nil {
		t.Fatal("expected error for unknown shared queue")
	}
}
