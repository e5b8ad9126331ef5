// Package cache provides a time- and size-bounded in-memory result cache.
package cache

import (
	"sync"
	"time"
)

const (
	// DefaultTTL is how long an entry stays valid after insertion.
	DefaultTTL = 15 * time.Minute
	// DefaultMaxEntries caps the number of cached results.
	DefaultMaxEntries = 100
)

type entry[T any] struct {
	createdAt time.Time
	value     T
}

// Cache maps scan keys to previously computed results. Entries expire after
// the TTL and the oldest entry is evicted once the cache is at capacity.
// All access is serialized, so concurrent scans never observe a torn
// check-evict-insert sequence.
type Cache[T any] struct {
	mu         sync.Mutex
	entries    map[string]entry[T]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// New creates a cache with the default TTL and capacity.
func New[T any]() *Cache[T] {
	return NewWithOptions[T](DefaultTTL, DefaultMaxEntries)
}

// NewWithOptions creates a cache with a custom TTL and capacity.
func NewWithOptions[T any](ttl time.Duration, maxEntries int) *Cache[T] {
	return &Cache[T]{
		entries:    make(map[string]entry[T]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached value for key if present and not expired.
// Expired entries are removed as a side effect.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set inserts or overwrites the value for key. If the cache is at capacity
// the entry with the oldest insertion timestamp is evicted first.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry[T]{createdAt: c.now(), value: value}
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[T]) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.createdAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.createdAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
