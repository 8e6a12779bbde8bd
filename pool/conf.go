package pool

import (
	"log/slog"
	"time"

	"github.com/utkarsh5026/devio/internal/config"
)

// AllocFunc is the backing allocator: it returns a slice of exactly the
// requested length or an error, which surfaces to callers as ErrOutOfMemory.
type AllocFunc func(size int) ([]byte, error)

// FreeFunc returns a slice to the backing allocator. May be nil, in which
// case dropped blocks are left to the garbage collector.
type FreeFunc func(buf []byte)

// Option is a functional option for configuring a pool.
// Options are honored only by the Create call that actually constructs the
// pool; later same-name Create calls share the existing instance.
type Option func(*poolConfig)

type poolConfig struct {
	alloc      AllocFunc
	free       FreeFunc
	idleTTL    time.Duration
	purgeEvery time.Duration
	logger     *slog.Logger
}

func defaultConfig() poolConfig {
	def := config.Default().Pool
	return poolConfig{
		alloc:      func(size int) ([]byte, error) { return make([]byte, size), nil },
		idleTTL:    def.IdleTTLDuration(),
		purgeEvery: def.PurgeEveryDuration(),
		logger:     slog.Default(),
	}
}

// WithAllocator sets the backing allocator and its release hook.
// The default allocator is make and never fails; free may be nil.
func WithAllocator(alloc AllocFunc, free FreeFunc) Option {
	return func(cfg *poolConfig) {
		if alloc != nil {
			cfg.alloc = alloc
			cfg.free = free
		}
	}
}

// WithIdleTTL sets how long a freed block may sit idle before the background
// purge reclaims it.
func WithIdleTTL(ttl time.Duration) Option {
	return func(cfg *poolConfig) {
		if ttl > 0 {
			cfg.idleTTL = ttl
		}
	}
}

// WithPurgeInterval sets the background purge tick. A non-positive interval
// disables the background purge entirely; manual Purge still works.
func WithPurgeInterval(every time.Duration) Option {
	return func(cfg *poolConfig) {
		cfg.purgeEvery = every
	}
}

// WithLogger routes corruption, double-free and teardown-leak reports to the
// given logger instead of slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *poolConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// FromConfig translates loaded tunables into options.
//
// Example:
//
//	cfg, _ := config.Load("/etc/devio.yaml")
//	p, _ := pool.Create("i2c-ctx", cfg.Pool.MinBlocks, 64, pool.FromConfig(cfg.Pool)...)
func FromConfig(pc config.PoolConfig) []Option {
	return []Option{
		WithIdleTTL(pc.IdleTTLDuration()),
		WithPurgeInterval(pc.PurgeEveryDuration()),
	}
}
