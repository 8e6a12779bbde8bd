package registry

import (
	"errors"
	"sync"
	"testing"
)

func TestRegistry_AcquireCreatesOnce(t *testing.T) {
	r := New[*int](nil)

	created := 0
	create := func() (*int, error) {
		created++
		v := 42
		return &v, nil
	}

	a, err := r.Acquire("dev0", create, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := r.Acquire("dev0", create, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a != b {
		t.Error("expected the same instance for the same name")
	}
	if created != 1 {
		t.Errorf("expected 1 creation, got %d", created)
	}
	if refs := r.Refs("dev0"); refs != 2 {
		t.Errorf("expected 2 refs, got %d", refs)
	}
}

func TestRegistry_CheckRejectsWithoutRefBump(t *testing.T) {
	r := New[int](nil)
	conflict := errors.New("size mismatch")

	if _, err := r.Acquire("p", func() (int, error) { return 16, nil }, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := r.Acquire("p", func() (int, error) { return 32, nil }, func(int) error { return conflict })
	if !errors.Is(err, conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if refs := r.Refs("p"); refs != 1 {
		t.Errorf("rejected acquire must not bump refs, got %d", refs)
	}
}

func TestRegistry_LastReleaseRunsTeardown(t *testing.T) {
	tore := 0
	r := New[string](func(string) { tore++ })

	if _, err := r.Acquire("q", func() (string, error) { return "v", nil }, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Acquire("q", func() (string, error) { return "v", nil }, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last, err := r.Release("q")
	if err != nil || last {
		t.Fatalf("first release: last=%v err=%v", last, err)
	}
	if tore != 0 {
		t.Fatal("teardown ran before last release")
	}

	last, err = r.Release("q")
	if err != nil || !last {
		t.Fatalf("second release: last=%v err=%v", last, err)
	}
	if tore != 1 {
		t.Errorf("expected 1 teardown, got %d", tore)
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d entries", r.Len())
	}
}

func TestRegistry_ReleaseUnknownName(t *testing.T) {
	r := New[int](nil)
	if _, err := r.Release("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_ConcurrentAcquireRelease(t *testing.T) {
	r := New[*int](nil)
	create := func() (*int, error) {
		v := 0
		return &v, nil
	}

	const n = 32
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Acquire("shared", create, nil); err != nil {
				t.Errorf("acquire: %v", err)
			}
		}()
	}
	wg.Wait()

	if refs := r.Refs("shared"); refs != n {
		t.Fatalf("expected %d refs, got %d", n, refs)
	}
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Release("shared"); err != nil {
				t.Errorf("release: %v", err)
			}
		}()
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", r.Len())
	}
}
