// Package loginattempt tracks sign-in attempts per client address to block
// brute-force credential guessing. A counter entry expires one minute after
// its last write, so the window keeps rolling while attempts continue below
// the threshold and only resets after a full quiet minute.
package loginattempt

import (
	"context"
	"time"
)

const (
	// Threshold is the number of attempts within the window after which the
	// client is blocked. The counter saturates here: blocked attempts are
	// rejected without incrementing further.
	Threshold = 5

	// Window is the expire-after-write lifetime of a counter entry.
	Window = time.Minute
)

// Store counts login attempts per key (client address). Implementations must
// be safe for concurrent use; the caller treats any error as a rejection
// (fail closed).
type Store interface {
	// Get returns the current attempt count for key, zero when absent or
	// expired.
	Get(ctx context.Context, key string) (int, error)

	// Increment adds one attempt for key and restarts its expiry window.
	Increment(ctx context.Context, key string) error
}

// Config selects and configures the store backend.
type Config struct {
	// Store selects the backend: "memory" (default) or "redis".
	Store string `yaml:"store" mapstructure:"store"`

	// Redis configures the redis backend when selected.
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig holds connection settings for the redis-backed store.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Store == "" {
		c.Store = "memory"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
}

// NewStore creates the configured store backend.
func NewStore(cfg Config) Store {
	cfg.ApplyDefaults()
	if cfg.Store == "redis" {
		return NewRedisStore(cfg.Redis)
	}
	return NewMemoryStore()
}
