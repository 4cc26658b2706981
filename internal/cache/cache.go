// Package cache provides a best-effort key-value cache with per-entry
// expiry. The cache is never a source of truth: a failing backend degrades
// every operation to a miss or no-op, it never raises.
package cache

import (
	"context"
	"time"
)

// Cache is the shared cache contract. Values are opaque bytes; callers own
// serialization. A ttl of zero applies the implementation's default TTL —
// every write establishes or refreshes an expiry.
type Cache interface {
	// Get returns the value and true if present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores the value. Returns false when the backend failed.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
	// Delete removes a key. Returns true if the key existed.
	Delete(ctx context.Context, key string) bool
	// Exists reports whether a key is present and unexpired.
	Exists(ctx context.Context, key string) bool
	// Increment atomically adds amount to an integer key and returns the new
	// count, creating the key at amount if absent. Returns 0 on backend
	// failure. ttl is applied only when the key has no expiry yet.
	Increment(ctx context.Context, key string, amount int64, ttl time.Duration) int64
	// GetMany returns the present keys only.
	GetMany(ctx context.Context, keys []string) map[string][]byte
	// SetMany stores all items with the same ttl.
	SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) bool
	// ClearByPrefix removes all keys with the given prefix, returning the
	// number removed.
	ClearByPrefix(ctx context.Context, prefix string) int
}
