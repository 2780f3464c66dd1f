package memory

import (
	"context"
	"sync"
	"time"

	"x402-lab/internal/domain"
	"x402-lab/internal/storage"
)

type cacheEntry struct {
	result    domain.SimulationResult
	expiresAt time.Time
}

// ResultCache is an in-memory implementation of storage.ResultCache.
// Entries expire after ttl; a zero ttl keeps them forever.
type ResultCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
	ttl  time.Duration
	now  func() time.Time
}

// NewResultCache creates a new in-memory result cache.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

var _ storage.ResultCache = (*ResultCache)(nil)

// Get returns the cached summary. Returns ErrNotFound on a miss or expiry.
func (c *ResultCache) Get(_ context.Context, key string) (*domain.SimulationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.data, key)
		return nil, storage.ErrNotFound
	}

	r := e.result
	return &r, nil
}

// Set stores a summary without its latencies.
func (c *ResultCache) Set(_ context.Context, key string, r *domain.SimulationResult) error {
	if key == "" || r == nil {
		return storage.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := cacheEntry{result: *r.Summary()}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.data[key] = e
	return nil
}

// Delete removes a key.
func (c *ResultCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}
