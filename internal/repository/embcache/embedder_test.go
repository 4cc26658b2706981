package embcache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: testEmbeddingResult([]float32{0.1, 0.2, 0.3}, 10)}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	var setCalled bool
	ms.setFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) bool {
		setCalled = true
		if ttl != DefaultTTL {
			t.Fatalf("expected default TTL, got %v", ttl)
		}
		return true
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !setCalled {
		t.Fatal("expected cache put on miss")
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: testEmbeddingResult([]float32{0.1, 0.2, 0.3}, 10)}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	cached := vectorToCacheBytes([]float32{0.4, 0.5, 0.6})
	ms.getFn = func(_ context.Context, _ string) ([]byte, bool) {
		return cached, true
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Fatal("inner embedder must not be called on a hit")
	}
}

func TestEmbed_RepeatCallBitIdentical(t *testing.T) {
	inner := &mockEmbedder{result: testEmbeddingResult([]float32{0.25, -1.5, 3.75}, 5)}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	// In-memory backing map: first call populates, second call hits.
	stored := map[string][]byte{}
	ms.getFn = func(_ context.Context, key string) ([]byte, bool) {
		v, ok := stored[key]
		return v, ok
	}
	ms.setFn = func(_ context.Context, key string, value []byte, _ time.Duration) bool {
		stored[key] = value
		return true
	}

	first, err := ce.Embed(ctx, "distributed systems")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ce.Embed(ctx, "distributed systems")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.calls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", inner.calls)
	}
	for i := range first.Embedding {
		if first.Embedding[i] != second.Embedding[i] {
			t.Fatalf("cached vector differs at %d: %v vs %v", i, first.Embedding[i], second.Embedding[i])
		}
	}
}

func TestEmbed_CorruptCacheEntryIsMiss(t *testing.T) {
	inner := &mockEmbedder{result: testEmbeddingResult([]float32{0.1}, 1)}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, bool) {
		return []byte{0x01, 0x02, 0x03}, true // not a multiple of 4
	}

	result, err := ce.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatal("corrupt entry must fall through to the provider")
	}
	if len(result.Embedding) != 1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, _ := newTestCachedEmbedder(t, inner)

	if _, err := ce.Embed(context.Background(), "test text"); err == nil {
		t.Fatal("expected error from inner embedder")
	}
}
