// Package cache provides the in-memory TTL cache that fronts report queries.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache is a simple in-memory TTL cache.
//
// Expiration is lazy: an expired entry is dropped by the Get that finds it
// and nothing sweeps the map in the background.
//
// Get and Set are individually safe for concurrent use, but a
// Get-miss / fetch / Set sequence is not atomic. Two requests missing the
// same key at the same time both go upstream and the later Set wins. This
// is not a single-flight cache.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	ttl   time.Duration
	clock clockwork.Clock
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock sets the clock used to stamp and check expirations.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// New creates a Cache whose entries live for ttl. A ttl <= 0 disables
// caching: Set becomes a no-op and every Get misses.
func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		items: make(map[string]entry[V]),
		ttl:   ttl,
		clock: o.clock,
	}
}

// TTL returns the configured time-to-live.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns value and true if present and fresh.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if c.clock.Now().Before(e.expiresAt) {
		return e.value, true
	}

	c.mu.Lock()
	// a concurrent Set may have replaced the entry since the read above
	if cur, ok := c.items[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
		delete(c.items, key)
	}
	c.mu.Unlock()
	return zero, false
}

// Set inserts or overwrites key with the cache-wide TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL inserts or overwrites key with ttl, capped at the cache-wide
// TTL. An override can only shorten an entry's life, never extend it.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	effective := c.ttl
	if ttl > 0 && ttl < effective {
		effective = ttl
	}
	if effective <= 0 {
		return
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, expiresAt: c.clock.Now().Add(effective)}
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones that
// have not been read since they expired.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return n
}
