package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock advances manually; Sleep advances the clock instead of blocking.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.Advance(d)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(cfg Config) (*Registry, *fakeClock) {
	clk := newFakeClock()
	return newRegistry(cfg, clk, false), clk
}

func TestBurstThenDeny(t *testing.T) {
	r, clk := newTestRegistry(Config{RequestsPerMinute: 2})

	// Fresh limiter carries a full burst of two permits.
	if !r.TryAcquire("user-update:alice", 0) {
		t.Fatal("first acquire should succeed")
	}
	if !r.TryAcquire("user-update:alice", 0) {
		t.Fatal("second acquire should succeed")
	}
	if r.TryAcquire("user-update:alice", 0) {
		t.Fatal("third immediate acquire should fail")
	}

	// One permit refills after half a minute at 2/min.
	clk.Advance(30 * time.Second)
	if !r.TryAcquire("user-update:alice", 0) {
		t.Fatal("acquire after refill should succeed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	r, _ := newTestRegistry(Config{RequestsPerMinute: 1})

	if !r.TryAcquire("user-update:alice", 0) {
		t.Fatal("alice's first acquire should succeed")
	}
	if r.TryAcquire("user-update:alice", 0) {
		t.Fatal("alice's second acquire should fail")
	}
	if !r.TryAcquire("user-update:bob", 0) {
		t.Fatal("bob must not be affected by alice's limiter")
	}
}

func TestAcquireWaitsWithinTimeout(t *testing.T) {
	r, clk := newTestRegistry(Config{RequestsPerMinute: 60}) // 1 permit per second

	for i := 0; i < 60; i++ {
		if !r.TryAcquire("k", 0) {
			t.Fatalf("burst acquire %d should succeed", i)
		}
	}
	// Bucket empty: next permit is one second out, inside a 5s budget.
	if !r.TryAcquire("k", 5*time.Second) {
		t.Fatal("acquire within timeout should succeed after waiting")
	}
	// The fake clock advanced by the waited amount.
	if got := clk.Now().Sub(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)); got < time.Second {
		t.Fatalf("expected the reservation to wait, clock only advanced %v", got)
	}
}

func TestConcurrentAcquiresNeverExceedBudget(t *testing.T) {
	r, _ := newTestRegistry(Config{RequestsPerMinute: 5})

	var granted int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryAcquire("shared", 0) {
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	wg.Wait()

	if granted != 5 {
		t.Fatalf("expected exactly 5 grants under contention, got %d", granted)
	}
}

func TestIdleEviction(t *testing.T) {
	r, clk := newTestRegistry(Config{RequestsPerMinute: 1, ExpirationMinutes: 15})

	r.TryAcquire("stale", 0)
	r.TryAcquire("fresh", 0)

	clk.Advance(10 * time.Minute)
	r.TryAcquire("fresh", 0) // touch

	clk.Advance(5 * time.Minute)
	r.evictIdle(clk.Now())

	r.mu.Lock()
	_, staleAlive := r.entries["stale"]
	_, freshAlive := r.entries["fresh"]
	r.mu.Unlock()

	if staleAlive {
		t.Error("idle entry should have been evicted")
	}
	if !freshAlive {
		t.Error("recently used entry should survive")
	}

	// Re-creation after eviction primes a fresh limiter, like a first use.
	if !r.TryAcquire("stale", 0) {
		t.Error("acquire after eviction should succeed")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.RequestsPerMinute != 2.0 || cfg.ExpirationMinutes != 15 || cfg.AcquireTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
