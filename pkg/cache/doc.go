// Package cache provides generic, thread-safe in-memory caches.
//
// LRUCache holds a fixed number of entries and evicts the least recently used
// one when full. TTLCache layers a per-entry expiry on top of it and is what
// the runtime settings resolver uses to avoid querying its source on every
// worker iteration.
//
// # Usage
//
//	c := cache.NewTTLCache[string, bool](64, 30*time.Second)
//	c.Set("workers_enabled", false)
//
//	if v, ok := c.Get("workers_enabled"); ok {
//		// served from memory until the TTL elapses
//	}
//
// Expired entries are dropped on lookup under the same lock that found them, so
// a concurrent Set is never lost. Get, Put and Remove are O(1).
package cache
