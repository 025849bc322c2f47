// Package ratelimit provides a process-wide registry of per-key token-bucket
// rate limiters, used to throttle sensitive operations per authenticated
// principal. Limiters are created lazily on first use and evicted after a
// configurable idle period; concurrent callers sharing a key share state.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Config configures the rate limiter registry.
type Config struct {
	// RequestsPerMinute is the sustained refill rate and the burst capacity
	// of each per-key limiter (default: 2.0).
	RequestsPerMinute float64 `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`

	// ExpirationMinutes is how long an unused limiter survives before the
	// registry evicts it (default: 15).
	ExpirationMinutes int `yaml:"expiration_minutes" mapstructure:"expiration_minutes"`

	// AcquireTimeout is how long callers wait for a permit before giving up
	// (default: 5s).
	AcquireTimeout time.Duration `yaml:"acquire_timeout" mapstructure:"acquire_timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.RequestsPerMinute == 0 {
		c.RequestsPerMinute = 2.0
	}
	if c.ExpirationMinutes == 0 {
		c.ExpirationMinutes = 15
	}
	if c.AcquireTimeout == 0 {
		c.AcquireTimeout = 5 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive (got: %f)", c.RequestsPerMinute)
	}
	if c.ExpirationMinutes < 0 {
		return fmt.Errorf("rate_limit.expiration_minutes must be positive (got: %d)", c.ExpirationMinutes)
	}
	return nil
}

// clock abstracts time for tests.
type clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// limiter is a smooth token bucket: it refills continuously at
// rate-per-minute / 60 permits per second up to the burst capacity.
// A fresh limiter is primed with a full burst.
type limiter struct {
	mu     sync.Mutex
	rate   float64 // permits per second
	burst  float64
	tokens float64
	last   time.Time
}

func newLimiter(requestsPerMinute float64, now time.Time) *limiter {
	burst := requestsPerMinute
	if burst < 1 {
		burst = 1
	}
	return &limiter{
		rate:   requestsPerMinute / 60.0,
		burst:  burst,
		tokens: burst,
		last:   now,
	}
}

// reserve attempts to take one permit. It returns (0, true) when a permit is
// immediately available, (wait, true) when one becomes available within
// timeout (the permit is committed and the caller must wait), and (0, false)
// when no permit can be obtained in time. The check-then-commit runs under
// the lock so concurrent callers can never double-spend a permit.
func (l *limiter) reserve(now time.Time, timeout time.Duration) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := now.Sub(l.last).Seconds()
	if elapsed > 0 {
		l.tokens += elapsed * l.rate
		if l.tokens > l.burst {
			l.tokens = l.burst
		}
		l.last = now
	}

	if l.tokens >= 1 {
		l.tokens--
		return 0, true
	}

	wait := time.Duration((1 - l.tokens) / l.rate * float64(time.Second))
	if wait > timeout {
		return 0, false
	}

	// Commit the reservation: tokens go negative, pushing later waiters
	// further out, which keeps acquisitions ordered per key.
	l.tokens--
	return wait, true
}

type entry struct {
	limiter    *limiter
	lastAccess time.Time
}

// Registry holds one limiter per key, created on first use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	cfg     Config
	clock   clock
	done    chan struct{}
	stop    sync.Once
}

// NewRegistry creates a registry and starts its idle-eviction sweeper.
func NewRegistry(cfg Config) *Registry {
	return newRegistry(cfg, systemClock{}, true)
}

func newRegistry(cfg Config, clk clock, sweep bool) *Registry {
	cfg.ApplyDefaults()
	r := &Registry{
		entries: make(map[string]*entry),
		cfg:     cfg,
		clock:   clk,
		done:    make(chan struct{}),
	}
	if sweep {
		go r.sweep()
	}
	return r
}

// TryAcquire attempts to take one permit from the limiter for key, waiting up
// to timeout for one to become available. It returns false when no permit
// could be obtained in time; the caller is expected to fail the operation
// with a rate-limit error.
func (r *Registry) TryAcquire(key string, timeout time.Duration) bool {
	now := r.clock.Now()

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{limiter: newLimiter(r.cfg.RequestsPerMinute, now)}
		r.entries[key] = e
	}
	e.lastAccess = now
	r.mu.Unlock()

	wait, ok := e.limiter.reserve(now, timeout)
	if !ok {
		return false
	}
	if wait > 0 {
		r.clock.Sleep(wait)
	}
	return true
}

// AcquireTimeout returns the configured per-acquire wait budget.
func (r *Registry) AcquireTimeout() time.Duration {
	return r.cfg.AcquireTimeout
}

// Stop halts the background sweeper.
func (r *Registry) Stop() {
	r.stop.Do(func() { close(r.done) })
}

// sweep periodically drops limiters that have not been used for the
// configured idle period. Eviction is memory management only: a re-created
// limiter starts freshly primed, exactly like a first use.
func (r *Registry) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.evictIdle(r.clock.Now())
		}
	}
}

func (r *Registry) evictIdle(now time.Time) {
	idle := time.Duration(r.cfg.ExpirationMinutes) * time.Minute
	r.mu.Lock()
	for key, e := range r.entries {
		if now.Sub(e.lastAccess) >= idle {
			delete(r.entries, key)
		}
	}
	r.mu.Unlock()
}
