package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache for tests and single-node deployments
// without Redis. Expired entries are evicted lazily on access.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	now        func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (c *MemoryCache) ttl(d time.Duration) time.Duration {
	if d <= 0 {
		return c.defaultTTL
	}
	return d
}

// live returns the entry if present and unexpired. Caller holds at least a
// read lock.
func (c *MemoryCache) live(key string) (memoryEntry, bool) {
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		return memoryEntry{}, false
	}
	return e, true
}

// Get returns the value and true if present.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.live(key)
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores the value with an expiry.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) bool {
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(c.ttl(ttl))}
	c.mu.Unlock()
	return true
}

// Delete removes a key.
func (c *MemoryCache) Delete(_ context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.live(key)
	delete(c.entries, key)
	return ok
}

// Exists reports key presence.
func (c *MemoryCache) Exists(_ context.Context, key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.live(key)
	return ok
}

// Increment adds amount to an integer value, creating the key at amount if
// absent. An existing entry keeps its expiry, matching EXPIRE NX semantics.
func (c *MemoryCache) Increment(_ context.Context, key string, amount int64, ttl time.Duration) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		c.entries[key] = memoryEntry{
			value:     []byte(strconv.FormatInt(amount, 10)),
			expiresAt: c.now().Add(c.ttl(ttl)),
		}
		return amount
	}

	n, err := strconv.ParseInt(string(e.value), 10, 64)
	if err != nil {
		return 0
	}
	n += amount
	c.entries[key] = memoryEntry{value: []byte(strconv.FormatInt(n, 10)), expiresAt: e.expiresAt}
	return n
}

// GetMany returns present keys only.
func (c *MemoryCache) GetMany(_ context.Context, keys []string) map[string][]byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if e, ok := c.live(k); ok {
			out[k] = e.value
		}
	}
	return out
}

// SetMany stores all items with the same ttl.
func (c *MemoryCache) SetMany(_ context.Context, items map[string][]byte, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl(ttl))
	for k, v := range items {
		c.entries[k] = memoryEntry{value: v, expiresAt: expires}
	}
	return true
}

// ClearByPrefix removes all keys with the given prefix.
func (c *MemoryCache) ClearByPrefix(_ context.Context, prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			if _, ok := c.live(k); ok {
				removed++
			}
			delete(c.entries, k)
		}
	}
	return removed
}

// Ping always succeeds; kept for parity with the store-backed cache wiring.
func (c *MemoryCache) Ping(_ context.Context) error { return nil }
