package db

import (
	"context"
	"time"
)

// Store is the key-value facade backing the cache abstraction.
// Consumers depend on narrow sub-interfaces (ISP), not on Store itself.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations with expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}
