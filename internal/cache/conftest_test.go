package cache

import (
	"context"
	"time"

	"github.com/kailas-cloud/courserec/internal/db"
)

// mockKVStore implements db.KVStore for tests. Unset hooks fall back to
// not-found / no-op behavior.
type mockKVStore struct {
	getFn    func(ctx context.Context, key string) ([]byte, error)
	setFn    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn    func(ctx context.Context, key string) (bool, error)
	incrFn   func(ctx context.Context, key string, val int64) (int64, error)
	expireFn func(ctx context.Context, key string, ttl time.Duration, nx bool) error
	scanFn   func(ctx context.Context, pattern string) ([]string, error)
	mgetFn   func(ctx context.Context, keys []string) ([][]byte, error)
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if m.mgetFn != nil {
		return m.mgetFn(ctx, keys)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	return m.SetWithTTL(ctx, key, value, 0)
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockKVStore) Del(ctx context.Context, key string) (bool, error) {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return false, nil
}

func (m *mockKVStore) Exists(_ context.Context, _ string) (bool, error) { return false, nil }

func (m *mockKVStore) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	if m.incrFn != nil {
		return m.incrFn(ctx, key, val)
	}
	return val, nil
}

func (m *mockKVStore) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	if m.expireFn != nil {
		return m.expireFn(ctx, key, ttl, nx)
	}
	return nil
}

func (m *mockKVStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}
