package cache

import "time"

type ttlEntry[V any] struct {
	value   V
	expires time.Time
}

// TTLCache is an LRUCache whose entries expire a fixed duration after they were set.
// Expired entries are dropped lazily on lookup.
type TTLCache[K comparable, V any] struct {
	lru *LRUCache[K, ttlEntry[V]]
	ttl time.Duration
	now func() time.Time
}

// TTLOption configures a TTLCache.
type TTLOption func(*ttlOptions)

type ttlOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) TTLOption {
	return func(o *ttlOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewTTLCache creates a cache holding up to capacity entries for ttl each.
// A ttl <= 0 disables caching: Set becomes a no-op and Get always misses.
func NewTTLCache[K comparable, V any](capacity int, ttl time.Duration, opts ...TTLOption) *TTLCache[K, V] {
	o := &ttlOptions{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return &TTLCache[K, V]{
		lru: NewLRUCache[K, ttlEntry[V]](capacity),
		ttl: ttl,
		now: o.now,
	}
}

// Get returns the live value stored under key.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	now := c.now()
	entry, ok := c.lru.GetValid(key, func(e ttlEntry[V]) bool {
		return now.Before(e.expires)
	})
	if !ok {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores value under key for the cache TTL.
func (c *TTLCache[K, V]) Set(key K, value V) {
	if c.ttl <= 0 {
		return
	}
	c.lru.Put(key, ttlEntry[V]{value: value, expires: c.now().Add(c.ttl)})
}

// Delete removes key.
func (c *TTLCache[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

// Purge removes every entry.
func (c *TTLCache[K, V]) Purge() {
	c.lru.Clear()
}

// Len returns the number of stored entries, including expired ones not yet dropped.
func (c *TTLCache[K, V]) Len() int {
	return c.lru.Len()
}
