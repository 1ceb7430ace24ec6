// Package cache provides a bounded, thread-safe TTL cache with LRU
// eviction, plus a manager that exposes content-addressed embedding and
// analysis-result namespaces over it.
package cache

import (
	"sync"
	"time"
)

// Entry is a single cached value with its bookkeeping. Entries are owned
// by one Cache instance and mutated on every read (access stats) and on
// eviction or expiry.
type Entry[V any] struct {
	Value       V
	CreatedAt   time.Time
	TTL         time.Duration
	AccessCount int
	LastAccess  time.Time
}

// expired reports whether the entry's age exceeds its TTL at time now.
func (e *Entry[V]) expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) >= e.TTL
}

// Stats reports cache observability counters. Used for display only,
// never for control flow.
type Stats struct {
	Size       int           `json:"size"`
	Capacity   int           `json:"capacity"`
	Hits       int64         `json:"hits"`
	Misses     int64         `json:"misses"`
	HitRate    float64       `json:"hit_rate"`
	DefaultTTL time.Duration `json:"default_ttl"`
}

// Cache is a bounded TTL cache. All operations run under a single mutex
// scoped to the instance; nothing inside the lock performs I/O. Inserting
// past capacity evicts the least-recently-accessed entry. Expired entries
// are invisible on read and removed lazily at that point, or in bulk via
// CleanupExpired.
type Cache[V any] struct {
	mu         sync.Mutex
	entries    map[string]*Entry[V]
	capacity   int
	defaultTTL time.Duration
	hits       int64
	misses     int64
}

// New creates a cache with the given capacity and default TTL.
func New[V any](capacity int, defaultTTL time.Duration) *Cache[V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache[V]{
		entries:    make(map[string]*Entry[V]),
		capacity:   capacity,
		defaultTTL: defaultTTL,
	}
}

// Get returns the value for key if present and unexpired. A hit refreshes
// recency and access statistics but never the TTL. An expired entry is
// removed as a side effect and counts as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}

	now := time.Now()
	if entry.expired(now) {
		delete(c.entries, key)
		c.misses++
		return zero, false
	}

	entry.AccessCount++
	entry.LastAccess = now
	c.hits++
	return entry.Value, true
}

// Set stores value under key with the default TTL. An existing entry for
// the key is overwritten and becomes most-recently-used.
func (c *Cache[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL. If the insert would
// exceed capacity, the least-recently-accessed entry is evicted first.
func (c *Cache[V]) SetTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLRU()
	}

	c.entries[key] = &Entry[V]{
		Value:      value,
		CreatedAt:  now,
		TTL:        ttl,
		LastAccess: now,
	}
}

// Invalidate removes key from the cache. Returns true if it was present.
func (c *Cache[V]) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns the number removed.
func (c *Cache[V]) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear empties the cache and returns the number of entries removed.
// Hit/miss counters are preserved.
func (c *Cache[V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]*Entry[V])
	return removed
}

// CleanupExpired sweeps all expired entries, independent of reads, and
// returns the number removed.
func (c *Cache[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Size returns the current number of entries, expired or not.
func (c *Cache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:       len(c.entries),
		Capacity:   c.capacity,
		Hits:       c.hits,
		Misses:     c.misses,
		HitRate:    rate,
		DefaultTTL: c.defaultTTL,
	}
}

// snapshot returns a copy of all unexpired entries. Used by the manager
// for disk persistence; the copy is taken under the lock so persistence
// itself never holds it.
func (c *Cache[V]) snapshot() map[string]Entry[V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	out := make(map[string]Entry[V], len(c.entries))
	for key, entry := range c.entries {
		if entry.expired(now) {
			continue
		}
		out[key] = *entry
	}
	return out
}

// evictLRU removes the entry with the oldest access time. Caller must
// hold the lock.
func (c *Cache[V]) evictLRU() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.LastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.LastAccess
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
