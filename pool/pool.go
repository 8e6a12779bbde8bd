// Package pool provides named, reference-counted pools of fixed-size guarded
// memory blocks. Blocks carry leading and trailing guard markers so the pool
// can detect double-free and buffer overrun bugs in driver code at release
// time, and freed blocks are timestamped so idle growth above the configured
// minimum is purged back to the allocator.
package pool

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/utkarsh5026/devio/internal/registry"
)

var (
	regOnce sync.Once
	reg     *registry.Registry[*Pool]
)

// pools returns the process-wide registry so independent call sites sharing
// a pool name share one instance.
func pools() *registry.Registry[*Pool] {
	regOnce.Do(func() {
		reg = registry.New(func(p *Pool) { p.teardown() })
	})
	return reg
}

// Pool hands out fixed-size guarded blocks. All methods are safe for
// concurrent use; no lock is held across a backing allocation or a log call.
type Pool struct {
	name    string
	size    int // caller-requested block size
	rounded int // size rounded up to a word boundary

	mu        sync.Mutex
	min       int // floor the pool never shrinks below
	count     int // total blocks currently owned
	available *blockList // free blocks, oldest-freed at the head
	allocated *blockList // blocks handed out to callers
	closed    bool

	purgeArmed bool
	purgeTimer *time.Timer

	conf   poolConfig
	logger *slog.Logger

	acquires    atomic.Int64
	releases    atomic.Int64
	growAllocs  atomic.Int64
	purged      atomic.Int64
	corruptions atomic.Int64
	doubleFrees atomic.Int64
}

// Stats is a point-in-time snapshot of a pool's counters.
type Stats struct {
	Name        string
	BlockSize   int
	MinBlocks   int
	TotalBlocks int
	Available   int
	InUse       int
	Acquires    int64
	Releases    int64
	GrowAllocs  int64
	Purged      int64
	Corruptions int64
	DoubleFrees int64
}

// Create returns the pool registered under name, creating it on first use.
// Creation pre-fills minCount free blocks of blockSize bytes (rounded up to
// a word boundary). A later Create with the same name returns the existing
// pool with its reference count bumped, provided blockSize matches; a
// mismatch is ErrConflict and leaves the existing pool untouched.
//
// Every Create must be balanced by a Put; the last Put tears the pool down.
func Create(name string, minCount, blockSize int, opts ...Option) (*Pool, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty pool name", ErrInvalidArgument)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidArgument, blockSize)
	}
	if minCount < 0 {
		return nil, fmt.Errorf("%w: min count %d", ErrInvalidArgument, minCount)
	}

	create := func() (*Pool, error) {
		return newPool(name, minCount, blockSize, opts...)
	}
	check := func(existing *Pool) error {
		if existing.size != blockSize {
			return fmt.Errorf("%w: %q has size %d, requested %d",
				ErrConflict, name, existing.size, blockSize)
		}
		return nil
	}
	return pools().Acquire(name, create, check)
}

func newPool(name string, minCount, blockSize int, opts ...Option) (*Pool, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pool{
		name:      name,
		size:      blockSize,
		rounded:   roundUp(blockSize),
		min:       minCount,
		available: newBlockList(),
		allocated: newBlockList(),
		conf:      cfg,
		logger:    cfg.logger.With("component", "pool", "pool", name),
	}

	for range minCount {
		b, err := p.newBlock()
		if err != nil {
			p.freeAll(p.available.drain())
			return nil, err
		}
		b.guard = guardFree
		b.freedAt = time.Now()
		b.elem = p.available.pushBack(b)
		p.count++
	}
	return p, nil
}

// newBlock allocates one backing buffer and wraps it. Callers hold no lock.
func (p *Pool) newBlock() (*Block, error) {
	buf, err := p.conf.alloc(p.rounded + wordSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}
	b := &Block{
		guard: guardUsed,
		buf:   buf,
		size:  p.size,
		owner: p,
	}
	stampTrailer(b.buf)
	return b, nil
}

// Acquire returns a block for exclusive use by the caller. The most recently
// freed block is reused first; when no free block exists the pool grows by
// one and, being above its minimum, arms the background purge.
func (p *Pool) Acquire() (*Block, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if b := p.available.popBack(); b != nil {
		b.guard = guardUsed
		b.freedAt = time.Time{}
		stampTrailer(b.buf)
		b.elem = p.allocated.pushBack(b)
		p.mu.Unlock()
		p.acquires.Add(1)
		return b, nil
	}
	p.mu.Unlock()

	// Grow by one block. The allocation may block, so it runs unlocked;
	// concurrent growers each add their own block.
	b, err := p.newBlock()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.freeAll([]*Block{b})
		return nil, ErrClosed
	}
	b.elem = p.allocated.pushBack(b)
	p.count++
	if p.count > p.min {
		p.armPurgeLocked()
	}
	p.mu.Unlock()

	p.acquires.Add(1)
	p.growAllocs.Add(1)
	return b, nil
}

// Release returns a block to the pool. A block whose leading guard is
// already the free marker is rejected with ErrDoubleFree; any other guard
// damage, including a clobbered trailing word, is logged as corruption and
// the release proceeds so the pool's lists stay consistent.
func (p *Pool) Release(b *Block) error {
	if b == nil {
		return fmt.Errorf("%w: nil block", ErrInvalidArgument)
	}
	if b.owner != p {
		return ErrForeignBlock
	}

	var headCorrupt, tailCorrupt bool

	p.mu.Lock()
	switch b.guard {
	case guardUsed:
	case guardFree:
		p.mu.Unlock()
		p.doubleFrees.Add(1)
		p.logger.Error("double free rejected", "block_size", b.size)
		return ErrDoubleFree
	default:
		headCorrupt = true
	}
	if !trailerIntact(b.buf) {
		tailCorrupt = true
		stampTrailer(b.buf)
	}
	p.allocated.remove(b.elem)
	b.guard = guardFree
	b.freedAt = time.Now()
	b.elem = p.available.pushBack(b)
	p.mu.Unlock()

	p.releases.Add(1)
	if headCorrupt {
		p.corruptions.Add(1)
		p.logger.Error("leading guard corrupted, block reclaimed anyway", "block_size", b.size)
	}
	if tailCorrupt {
		p.corruptions.Add(1)
		p.logger.Error("write past end of block detected", "block_size", b.size)
	}
	return nil
}

// Resize changes the pool's minimum block count. Growing pre-fills the
// difference with fresh free blocks; shrinking frees up to the difference
// out of the free list, never touching blocks callers still hold.
func (p *Pool) Resize(newMin int) error {
	if newMin < 0 {
		return fmt.Errorf("%w: min count %d", ErrInvalidArgument, newMin)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	oldMin := p.min
	p.mu.Unlock()

	if newMin > oldMin {
		// Allocate unlocked, commit under the lock.
		fresh := make([]*Block, 0, newMin-oldMin)
		for range newMin - oldMin {
			b, err := p.newBlock()
			if err != nil {
				p.freeAll(fresh)
				return err
			}
			b.guard = guardFree
			b.freedAt = time.Now()
			fresh = append(fresh, b)
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			p.freeAll(fresh)
			return ErrClosed
		}
		for _, b := range fresh {
			b.elem = p.available.pushBack(b)
		}
		p.count += len(fresh)
		p.min = newMin
		p.mu.Unlock()
		return nil
	}

	var victims []*Block
	p.mu.Lock()
	p.min = newMin
	for range oldMin - newMin {
		b := p.available.popFront()
		if b == nil {
			break
		}
		p.count--
		victims = append(victims, b)
	}
	if p.count > p.min {
		p.armPurgeLocked()
	}
	p.mu.Unlock()

	p.freeAll(victims)
	return nil
}

// Put releases one reference to the pool. The last reference tears the pool
// down: the purge timer is disarmed, free blocks are returned to the
// allocator, and blocks still held by callers are reported and reclaimed
// anyway.
func (p *Pool) Put() error {
	_, err := pools().Release(p.name)
	return err
}

func (p *Pool) teardown() {
	p.mu.Lock()
	p.closed = true
	if p.purgeTimer != nil {
		p.purgeTimer.Stop()
	}
	p.purgeArmed = false
	free := p.available.drain()
	leaked := p.allocated.drain()
	// Poison leaked guards while still holding the lock: Release reads the
	// guard under the same lock, so a late Release is caught as a double free
	// instead of racing the drained lists.
	for _, b := range leaked {
		b.guard = guardFree
	}
	p.count = 0
	p.mu.Unlock()

	p.freeAll(free)
	if len(leaked) > 0 {
		p.logger.Error("pool destroyed with blocks still in use; reclaiming them",
			"leaked", len(leaked))
		p.freeAll(leaked)
	}
}

// freeAll hands buffers back to the allocator's release hook, if any.
// Callers hold no lock.
func (p *Pool) freeAll(blocks []*Block) {
	if p.conf.free == nil {
		return
	}
	for _, b := range blocks {
		p.conf.free(b.buf)
	}
}

// Name returns the registry key the pool was created under.
func (p *Pool) Name() string { return p.name }

// BlockSize returns the caller-requested block size.
func (p *Pool) BlockSize() int { return p.size }

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	s := Stats{
		Name:        p.name,
		BlockSize:   p.size,
		MinBlocks:   p.min,
		TotalBlocks: p.count,
		Available:   p.available.len(),
		InUse:       p.allocated.len(),
	}
	p.mu.Unlock()

	s.Acquires = p.acquires.Load()
	s.Releases = p.releases.Load()
	s.GrowAllocs = p.growAllocs.Load()
	s.Purged = p.purged.Load()
	s.Corruptions = p.corruptions.Load()
	s.DoubleFrees = p.doubleFrees.Load()
	return s
}
