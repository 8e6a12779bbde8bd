package queue

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/utkarsh5026/devio/internal/config"
)

// Option is a functional option for configuring a dispatch queue.
type Option func(*queueConfig)

type queueConfig struct {
	capacityHint int
	rateLimiter  *rate.Limiter
	pinCPU       int
	logger       *slog.Logger
}

func defaultQueueConfig() queueConfig {
	return queueConfig{
		capacityHint: 0,
		pinCPU:       -1,
		logger:       slog.Default(),
	}
}

// WithCapacityHint sets the advisory pending-depth watermark. The FIFO is
// unbounded and Submit never blocks; crossing the hint only logs a backlog
// warning. Zero disables the watermark.
func WithCapacityHint(n int) Option {
	return func(cfg *queueConfig) {
		if n >= 0 {
			cfg.capacityHint = n
		}
	}
}

// WithRateLimit paces dispatch: the worker waits on a token bucket before
// invoking each callback. Useful for devices that need settle time between
// transactions. Pacing never delays the cancellation drain.
//
// Example:
//
//	WithRateLimit(100, 1) // at most 100 transactions/sec, no bursting
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cfg *queueConfig) {
		if perSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithCPUAffinity locks the dispatcher goroutine to an OS thread pinned to
// the given core. A negative core leaves the dispatcher unpinned.
func WithCPUAffinity(core int) Option {
	return func(cfg *queueConfig) {
		cfg.pinCPU = core
	}
}

// WithLogger routes backlog and drain reports to the given logger instead of
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *queueConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// FromConfig translates loaded tunables into options.
func FromConfig(qc config.QueueConfig) []Option {
	return []Option{
		WithCapacityHint(qc.CapacityHint),
		WithRateLimit(qc.PaceRate, qc.PaceBurst),
		WithCPUAffinity(qc.PinCPU),
	}
}
