package loginattempt

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryStore is the in-process store backend: a mutex-guarded map with
// expire-after-write entries. Expired entries are discarded on read and by a
// background sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
	done    chan struct{}
	stop    sync.Once
}

// NewMemoryStore creates an in-memory attempt store and starts its sweeper.
func NewMemoryStore() *MemoryStore {
	s := newMemoryStore(time.Now)
	go s.sweep()
	return s
}

func newMemoryStore(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     now,
		done:    make(chan struct{}),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return 0, nil
	}
	return e.count, nil
}

func (s *MemoryStore) Increment(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = &memoryEntry{}
		s.entries[key] = e
	}
	e.count++
	// Every write restarts the window.
	e.expiresAt = now.Add(Window)
	return nil
}

// Stop halts the background sweeper.
func (s *MemoryStore) Stop() {
	s.stop.Do(func() { close(s.done) })
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(Window)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for key, e := range s.entries {
				if !now.Before(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
