package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn func(ctx context.Context, key string) ([]byte, bool)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) bool
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, false
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return true
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	ce := New(inner, ms, 0, nil, zap.NewNop())
	return ce, ms
}

func testEmbeddingResult(vec []float32, tokens int) domain.EmbeddingResult {
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: tokens, TotalTokens: tokens}
}
