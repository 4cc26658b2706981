package quota

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// memStore is an in-memory counter store with the cache contract's
// degrade-on-failure shape; flipping broken simulates a backend outage.
type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	broken bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return nil, false
	}
	v, ok := m.data[key]
	return v, ok
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return false
	}
	m.data[key] = value
	return true
}

func (m *memStore) Delete(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return false
	}
	_, ok := m.data[key]
	delete(m.data, key)
	return ok
}

func (m *memStore) Increment(_ context.Context, key string, amount int64, _ time.Duration) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return 0
	}
	var n int64
	if v, ok := m.data[key]; ok {
		n, _ = strconv.ParseInt(string(v), 10, 64)
	}
	n += amount
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n
}

func newTestService(store *memStore, at time.Time) *Service {
	svc := New(store, map[string]int{"physics": 150}, zap.NewNop())
	svc.now = func() time.Time { return at }
	return svc
}
