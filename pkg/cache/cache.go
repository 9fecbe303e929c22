// Package cache provides the in-memory TTL cache used for catalog responses.
// The clock is injectable so TTL behavior is testable without real timers.
package cache

import (
	"sync"
	"time"
)

// Cache stores payloads with a fixed TTL. Entries are never served past
// their expiry; expiry is checked lazily on read and there is no background
// eviction.
type Cache struct {
	mu   sync.RWMutex
	data map[string]*entry
	ttl  time.Duration
	now  func() time.Time
}

type entry struct {
	payload   []byte
	expiresAt time.Time
}

// New creates a cache with the given TTL using the wall clock.
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock creates a cache with an explicit clock.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{
		data: make(map[string]*entry),
		ttl:  ttl,
		now:  now,
	}
}

// Get returns the cached payload for key, or (nil, false) if absent or
// expired. Expired entries are removed on read.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another Set may have replaced it.
		if cur, ok := c.data[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.payload, true
}

// HasFresh reports whether a non-expired entry exists for key.
func (c *Cache) HasFresh(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set stores payload under key, evicting any prior entry for the same key.
func (c *Cache) Set(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = &entry{
		payload:   payload,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Remove deletes an entry from the cache.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
