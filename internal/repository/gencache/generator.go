package gencache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kailas-cloud/courserec/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "gen_cache:"

// DefaultTTL keeps generated descriptions long enough for repeat queries
// without letting catalog or prompt changes go stale for a full day.
const DefaultTTL = 6 * time.Hour

// store is the consumer interface for the generation cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
}

// CachedGenerator memoizes blocking Generate calls in the shared cache.
// Streaming calls pass through untouched: a stream is consumed once and
// caching partial output would change its semantics.
type CachedGenerator struct {
	inner domain.Generator
	store store
	ttl   time.Duration
}

var _ domain.Generator = (*CachedGenerator)(nil)

// New creates a caching decorator around a generator.
func New(inner domain.Generator, s store, ttl time.Duration) *CachedGenerator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedGenerator{inner: inner, store: s, ttl: ttl}
}

// Generate returns a cached completion or calls the inner generator.
func (c *CachedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	key := c.cacheKey(prompt)

	if data, ok := c.store.Get(ctx, key); ok && len(data) > 0 {
		return string(data), nil
	}

	text, err := c.inner.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	c.store.Set(ctx, key, []byte(text), c.ttl)
	return text, nil
}

// GenerateStream delegates to the inner generator without caching.
func (c *CachedGenerator) GenerateStream(ctx context.Context, prompt string) (domain.TextStream, error) {
	return c.inner.GenerateStream(ctx, prompt)
}

func (c *CachedGenerator) cacheKey(prompt string) string {
	h := sha256.Sum256([]byte(prompt))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}
