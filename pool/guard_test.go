package pool

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
)

// logCapture collects log output so tests can assert on guard reports.
type logCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (lc *logCapture) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&lockedWriter{lc: lc}, nil))
}

func (lc *logCapture) contains(s string) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return bytes.Contains(lc.buf.Bytes(), []byte(s))
}

type lockedWriter struct{ lc *logCapture }

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.lc.mu.Lock()
	defer w.lc.mu.Unlock()
	return w.lc.buf.Write(p)
}

func TestRelease_DoubleFreeRejected(t *testing.T) {
	p := newTestPool(t, 1, 16)

	b, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := p.Release(b); err != nil {
		t.Fatalf("first Release: %v", err)
	}

	if err := p.Release(b); !errors.Is(err, ErrDoubleFree) {
		t.Fatalf("expected ErrDoubleFree, got %v", err)
	}

	s := p.Stats()
	if s.DoubleFrees != 1 {
		t.Errorf("expected 1 double-free report, got %d", s.DoubleFrees)
	}
	// The rejected release must not have re-linked the block: one free
	// block, acquirable exactly once without growth.
	if s.Available != 1 || s.TotalBlocks != 1 {
		t.Errorf("free list inconsistent after double free: %+v", s)
	}
}

func TestRelease_TrailingOverwriteDetected(t *testing.T) {
	capture := &logCapture{}
	p := newTestPool(t, 1, 16, WithLogger(capture.logger()))

	b, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// Run off the end of the payload into the trailing guard word.
	raw := b.Bytes()
	raw = raw[:cap(raw)]
	for i := b.Size(); i < len(raw); i++ {
		raw[i] = 0xAA
	}

	if err := p.Release(b); err != nil {
		t.Fatalf("overrun must be non-fatal, got %v", err)
	}
	if got := p.Stats().Corruptions; got != 1 {
		t.Errorf("expected 1 corruption report, got %d", got)
	}
	if !capture.contains("write past end of block") {
		t.Error("expected an overrun log entry")
	}

	// The pool must remain fully usable: the guard word is restamped and
	// the block cycles cleanly.
	for range 3 {
		b, err := p.Acquire()
		if err != nil {
			t.Fatalf("Acquire after corruption: %v", err)
		}
		if err := p.Release(b); err != nil {
			t.Fatalf("Release after corruption: %v", err)
		}
	}
	if got := p.Stats().Corruptions; got != 1 {
		t.Errorf("corruption must not repeat after restamping, got %d reports", got)
	}
}

func TestRelease_LeadingGuardDamageLoggedNonFatal(t *testing.T) {
	capture := &logCapture{}
	p := newTestPool(t, 1, 16, WithLogger(capture.logger()))

	b, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	b.guard = 0xBAADF00D // simulated caller-side damage

	if err := p.Release(b); err != nil {
		t.Fatalf("guard damage must be non-fatal, got %v", err)
	}
	if got := p.Stats().Corruptions; got != 1 {
		t.Errorf("expected 1 corruption report, got %d", got)
	}
	if !capture.contains("leading guard corrupted") {
		t.Error("expected a leading-guard log entry")
	}

	// Reclaimed onto the free list regardless.
	if got := p.Stats().Available; got != 1 {
		t.Errorf("expected block reclaimed, got %d available", got)
	}
}

func TestPut_LeakIsLoggedLoudly(t *testing.T) {
	capture := &logCapture{}
	name := t.Name()
	p, err := Create(name, 1, 16, WithLogger(capture.logger()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := p.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := p.Put(); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if !capture.contains("still in use") {
		t.Error("expected a leak report at teardown")
	}
}

func TestRoundUp(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 4}, // zero-byte request promoted to one word
		{-3, 4},
		{1, 4},
		{4, 4},
		{5, 8},
		{16, 16},
		{17, 20},
	}
	for _, tc := range cases {
		if got := roundUp(tc.in); got != tc.want {
			t.Errorf("roundUp(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
