package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/inventory/internal/domain/shared"
)

const sweepInterval = 5 * time.Minute

// MemoryStore keeps processed keys in a map with per-key expiry. A
// background sweeper drops expired entries so long-running processes
// do not accumulate stale keys.
type MemoryStore struct {
	mu      sync.RWMutex
	keys    map[string]time.Time
	done    chan struct{}
	stopped sync.Once
	swept   sync.WaitGroup
}

// NewMemoryStore allocates the store and starts its sweeper.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		keys: make(map[string]time.Time),
		done: make(chan struct{}),
	}
	s.swept.Add(1)
	go s.sweep()
	return s
}

// MarkProcessed records key for ttl. It returns false when the key is
// already present and still live, which signals a duplicate.
func (s *MemoryStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if expiry, ok := s.keys[key]; ok && now.Before(expiry) {
		return false, nil
	}
	s.keys[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether key is present and not yet expired.
func (s *MemoryStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, ok := s.keys[key]
	return ok && time.Now().Before(expiry), nil
}

// Release drops key immediately, allowing a retry.
func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

// Close stops the sweeper. Idempotent.
func (s *MemoryStore) Close() error {
	s.stopped.Do(func() {
		close(s.done)
		s.swept.Wait()
	})
	return nil
}

// Size reports the number of tracked keys, expired ones included
// until the next sweep.
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

func (s *MemoryStore) sweep() {
	defer s.swept.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.dropExpired()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) dropExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, expiry := range s.keys {
		if now.After(expiry) {
			delete(s.keys, key)
		}
	}
}

var _ shared.IdempotencyStore = (*MemoryStore)(nil)
