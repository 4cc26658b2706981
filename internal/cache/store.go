package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/db"
)

// StoreCache implements Cache over a db.KVStore (Redis). Backend failures
// are logged at Warn and degrade to miss/no-op.
type StoreCache struct {
	store      db.KVStore
	defaultTTL time.Duration
	logger     *zap.Logger
}

var _ Cache = (*StoreCache)(nil)

// NewStoreCache creates a store-backed cache. defaultTTL applies to writes
// that pass ttl=0.
func NewStoreCache(store db.KVStore, defaultTTL time.Duration, logger *zap.Logger) *StoreCache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &StoreCache{store: store, defaultTTL: defaultTTL, logger: logger}
}

func (c *StoreCache) ttl(d time.Duration) time.Duration {
	if d <= 0 {
		return c.defaultTTL
	}
	return d
}

// Get returns the value and true if present.
func (c *StoreCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

// Set stores the value with an expiry.
func (c *StoreCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if err := c.store.SetWithTTL(ctx, key, value, c.ttl(ttl)); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Delete removes a key.
func (c *StoreCache) Delete(ctx context.Context, key string) bool {
	existed, err := c.store.Del(ctx, key)
	if err != nil {
		c.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return existed
}

// Exists reports key presence.
func (c *StoreCache) Exists(ctx context.Context, key string) bool {
	ok, err := c.store.Exists(ctx, key)
	if err != nil {
		c.logger.Warn("cache exists failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

// Increment adds amount via INCRBY and ensures a TTL exists (EXPIRE NX, so
// repeat increments within the window do not push the expiry out).
func (c *StoreCache) Increment(ctx context.Context, key string, amount int64, ttl time.Duration) int64 {
	n, err := c.store.IncrBy(ctx, key, amount)
	if err != nil {
		c.logger.Warn("cache increment failed", zap.String("key", key), zap.Error(err))
		return 0
	}
	if err := c.store.Expire(ctx, key, c.ttl(ttl), true); err != nil {
		c.logger.Warn("cache expire failed", zap.String("key", key), zap.Error(err))
	}
	return n
}

// GetMany returns present keys only.
func (c *StoreCache) GetMany(ctx context.Context, keys []string) map[string][]byte {
	values, err := c.store.MGet(ctx, keys)
	if err != nil {
		c.logger.Warn("cache mget failed", zap.Int("keys", len(keys)), zap.Error(err))
		return map[string][]byte{}
	}

	out := make(map[string][]byte, len(keys))
	for i, v := range values {
		if v != nil {
			out[keys[i]] = v
		}
	}
	return out
}

// SetMany stores all items with the same ttl.
func (c *StoreCache) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) bool {
	ok := true
	for k, v := range items {
		if err := c.store.SetWithTTL(ctx, k, v, c.ttl(ttl)); err != nil {
			c.logger.Warn("cache set failed", zap.String("key", k), zap.Error(err))
			ok = false
		}
	}
	return ok
}

// ClearByPrefix removes all keys with the given prefix.
func (c *StoreCache) ClearByPrefix(ctx context.Context, prefix string) int {
	keys, err := c.store.Scan(ctx, prefix+"*")
	if err != nil {
		c.logger.Warn("cache scan failed", zap.String("prefix", prefix), zap.Error(err))
		return 0
	}

	removed := 0
	for _, k := range keys {
		existed, err := c.store.Del(ctx, k)
		if err != nil {
			c.logger.Warn("cache delete failed", zap.String("key", k), zap.Error(err))
			continue
		}
		if existed {
			removed++
		}
	}
	return removed
}
