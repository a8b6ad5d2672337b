package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	deadline time.Time
}

// Cache is a concurrency-safe map with an optional per-entry time to live.
// A zero ttl means entries never expire.
type Cache[K comparable, V any] struct {
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

func New[K comparable, V any]() *Cache[K, V] {
	return NewTTL[K, V](0)
}

// NewTTL creates a cache whose entries expire ttl after they were set.
func NewTTL[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry[V]{value: value}
	if c.ttl > 0 {
		e.deadline = c.now().Add(c.ttl)
	}
	c.entries[key] = e
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Get returns the value for key. An expired entry is a miss and is removed.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}

	if !e.deadline.IsZero() && c.now().After(e.deadline) {
		c.Delete(key)
		var zero V
		return zero, false
	}

	return e.value, true
}

func (c *Cache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]K, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}
