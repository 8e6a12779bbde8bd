package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the driver-side tunables for dispatch queues and block pools.
// It is loaded from a YAML file shipped alongside the driver so deployments
// can adjust pacing and pooling without a rebuild.
type Config struct {
	Queue QueueConfig `yaml:"queue" json:"queue"`
	Pool  PoolConfig  `yaml:"pool" json:"pool"`
}

// QueueConfig tunes a dispatch queue.
type QueueConfig struct {
	// CapacityHint is the pending-job depth beyond which a backlog warning
	// is logged. Zero disables the watermark.
	CapacityHint int `yaml:"capacity_hint" json:"capacity_hint"`

	// PaceRate limits dispatched transactions per second. Zero disables
	// pacing.
	PaceRate float64 `yaml:"pace_rate" json:"pace_rate"`

	// PaceBurst is the token bucket burst when pacing is enabled.
	PaceBurst int `yaml:"pace_burst" json:"pace_burst"`

	// PinCPU pins the dispatcher thread to a core. Negative means unpinned.
	PinCPU int `yaml:"pin_cpu" json:"pin_cpu"`
}

// PoolConfig tunes a guarded block pool.
type PoolConfig struct {
	// MinBlocks is the floor the pool never shrinks below.
	MinBlocks int `yaml:"min_blocks" json:"min_blocks"`

	// IdleTTL is how long a freed block may sit unused before the purge
	// reclaims it, as a Go duration string ("30s", "2m").
	IdleTTL string `yaml:"idle_ttl" json:"idle_ttl"`

	// PurgeEvery is the background purge interval, as a duration string.
	PurgeEvery string `yaml:"purge_every" json:"purge_every"`
}

// Default returns the tunables used when no file is present.
func Default() Config {
	return Config{
		Queue: QueueConfig{
			CapacityHint: 0,
			PaceRate:     0,
			PaceBurst:    1,
			PinCPU:       -1,
		},
		Pool: PoolConfig{
			MinBlocks:  4,
			IdleTTL:    "30s",
			PurgeEvery: "10s",
		},
	}
}

// Load reads a YAML tunables file, layered over Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and duration syntax.
func (c Config) Validate() error {
	if c.Queue.CapacityHint < 0 {
		return fmt.Errorf("queue.capacity_hint must be >= 0, got %d", c.Queue.CapacityHint)
	}
	if c.Queue.PaceRate < 0 {
		return fmt.Errorf("queue.pace_rate must be >= 0, got %g", c.Queue.PaceRate)
	}
	if c.Queue.PaceRate > 0 && c.Queue.PaceBurst < 1 {
		return fmt.Errorf("queue.pace_burst must be >= 1 when pacing, got %d", c.Queue.PaceBurst)
	}
	if c.Pool.MinBlocks < 0 {
		return fmt.Errorf("pool.min_blocks must be >= 0, got %d", c.Pool.MinBlocks)
	}
	if _, err := time.ParseDuration(c.Pool.IdleTTL); err != nil {
		return fmt.Errorf("pool.idle_ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.Pool.PurgeEvery); err != nil {
		return fmt.Errorf("pool.purge_every: %w", err)
	}
	return nil
}

// IdleTTLDuration returns the parsed idle TTL. Validate must have passed.
func (p PoolConfig) IdleTTLDuration() time.Duration {
	d, _ := time.ParseDuration(p.IdleTTL)
	return d
}

// PurgeEveryDuration returns the parsed purge interval. Validate must have
// passed.
func (p PoolConfig) PurgeEveryDuration() time.Duration {
	d, _ := time.ParseDuration(p.PurgeEvery)
	return d
}
