package courserec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/cache"
	dbRedis "github.com/kailas-cloud/courserec/internal/db/redis"
	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/metrics"
	"github.com/kailas-cloud/courserec/internal/repository/corpus"
	"github.com/kailas-cloud/courserec/internal/repository/embcache"
	"github.com/kailas-cloud/courserec/internal/repository/gencache"
	usagerepo "github.com/kailas-cloud/courserec/internal/repository/usage"
	openaiProvider "github.com/kailas-cloud/courserec/internal/transport/openai"
	healthuc "github.com/kailas-cloud/courserec/internal/usecase/health"
	quotauc "github.com/kailas-cloud/courserec/internal/usecase/quota"
	recommenduc "github.com/kailas-cloud/courserec/internal/usecase/recommend"
	retrievaluc "github.com/kailas-cloud/courserec/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/courserec/internal/usecase/usage"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces for substitution in tests.
type recommendUseCase interface {
	Recommend(ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester) (*domain.RecommendationResult, error)
	RecommendStream(ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester) (<-chan string, error)
	CourseDetails(ctx context.Context, id string) (*recommenduc.CourseDetails, error)
	SimilarCourses(ctx context.Context, courseID string, limit int) ([]domain.SimilarityMatch, error)
	ExplainCourse(ctx context.Context, courseID, query string) (string, error)
	Stats(ctx context.Context) recommenduc.Stats
}

type quotaUseCase interface {
	QuotaInfo(ctx context.Context, req domain.Requester) quotauc.Info
	CheckRateLimit(ctx context.Context, req domain.Requester) quotauc.Decision
	CheckQuota(ctx context.Context, req domain.Requester) quotauc.Decision
	RecordRequest(ctx context.Context, req domain.Requester)
	ResetQuota(ctx context.Context, userID string) bool
	SetQuotaOverride(ctx context.Context, userID string, limit int) bool
}

type usageUseCase interface {
	UserRecords(userID string, period usageuc.Period) []domain.UsageRecord
	SystemStats(period usageuc.Period) usageuc.SystemStats
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// pinger abstracts the cache backend connectivity check.
type pinger interface {
	Ping(ctx context.Context) error
}

// Client is the courserec SDK entry point.
type Client struct {
	closer       io.Closer
	pinger       pinger
	recommendSvc recommendUseCase
	quotaSvc     quotaUseCase
	usageSvc     usageUseCase
	healthSvc    healthUseCase
	obs          *observer
}

// New creates a courserec Client. The provided context is used for the
// initial cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("courserec: cache backend required (use WithValkey, WithRedis, or WithMemory)")
	}
	if cfg.corpusPath == "" {
		return nil, errors.New("courserec: course catalog required (use WithCorpusFile)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return wireClient(ctx, cfg, obs)
}

func wireClient(ctx context.Context, cfg *clientConfig, obs *observer) (*Client, error) {
	// Internal layers log through zap; the SDK surface stays on slog.
	nop := zap.NewNop()

	var (
		sharedCache interface {
			Get(ctx context.Context, key string) ([]byte, bool)
			Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
			Delete(ctx context.Context, key string) bool
			Increment(ctx context.Context, key string, amount int64, ttl time.Duration) int64
		}
		ping   pinger
		closer io.Closer
	)

	switch cfg.driver {
	case "memory":
		mem := cache.NewMemoryCache(time.Hour)
		sharedCache, ping = mem, mem
	case "valkey", "redis":
		// rueidis speaks both protocols.
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("courserec: create %s store: %w", cfg.driver, err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("courserec: cache not ready: %w", err)
		}
		sharedCache = cache.NewStoreCache(store, time.Hour, nop)
		ping = store
		closer = storeCloser{store}
	default:
		return nil, fmt.Errorf("courserec: unknown driver %q", cfg.driver)
	}

	embedder, generator, embHealth, genHealth := buildProviders(cfg, nop)

	embedder = embcache.New(embedder, sharedCache, 0, metrics.EmbeddingCacheTotal, nop)
	generator = gencache.New(generator, sharedCache, 0)

	corpusStore := corpus.New(corpus.NewFileLoader(cfg.corpusPath), nop)
	retrievalSvc := retrievaluc.New(corpusStore, embedder)
	ledger := usagerepo.New(sharedCache, nop)

	return &Client{
		closer:       closer,
		pinger:       ping,
		recommendSvc: recommenduc.New(retrievalSvc, generator, ledger, nop),
		quotaSvc:     quotauc.New(sharedCache, cfg.departmentQuotas, nop),
		usageSvc:     usageuc.New(ledger),
		healthSvc:    healthuc.New(ping, embHealth, genHealth),
		obs:          obs,
	}, nil
}

// buildProviders resolves the embedding and generation providers from the
// config: custom implementations win, then OpenAI, then erroring stubs.
func buildProviders(cfg *clientConfig, logger *zap.Logger) (domain.Embedder, domain.Generator, healthuc.ProviderChecker, healthuc.ProviderChecker) {
	var (
		embedder  domain.Embedder
		generator domain.Generator
		embHealth healthuc.ProviderChecker
		genHealth healthuc.ProviderChecker
	)

	limiter := openaiProvider.NewLimiter(cfg.concurrency)

	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
	} else if cfg.apiKey != "" {
		base := openaiProvider.NewEmbedder(&openaiProvider.EmbedderConfig{
			APIKey:   cfg.apiKey,
			BaseURL:  cfg.baseURL,
			Model:    embeddingModelOrDefault(cfg),
			Provider: "openai",
			Limiter:  limiter,
			Logger:   logger,
		})
		embedder, embHealth = base, base
	} else {
		embedder = noopEmbedder{}
	}

	if cfg.generator != nil {
		generator = &generatorAdapter{inner: cfg.generator}
	} else if cfg.apiKey != "" {
		base := openaiProvider.NewGenerator(&openaiProvider.GeneratorConfig{
			APIKey:      cfg.apiKey,
			BaseURL:     cfg.baseURL,
			Model:       generationModelOrDefault(cfg),
			MaxTokens:   cfg.maxTokens,
			Temperature: cfg.temperature,
			Provider:    "openai",
			Limiter:     limiter,
			Logger:      logger,
		})
		generator, genHealth = base, base
	} else {
		generator = noopGenerator{}
	}

	return embedder, generator, embHealth, genHealth
}

func embeddingModelOrDefault(cfg *clientConfig) string {
	if cfg.embeddingModel != "" {
		return cfg.embeddingModel
	}
	return "text-embedding-ada-002"
}

func generationModelOrDefault(cfg *clientConfig) string {
	if cfg.generationModel != "" {
		return cfg.generationModel
	}
	return "gpt-4o"
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closer != nil {
		_ = c.closer.Close()
	}
}

// Ping checks cache backend connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// storeCloser adapts the store's Close() to io.Closer.
type storeCloser struct {
	store *dbRedis.Store
}

func (s storeCloser) Close() error {
	s.store.Close()
	return nil
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
// Token usage is unknown for custom providers and reported as zero.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vec, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// generatorAdapter wraps the public Generator to satisfy domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := a.inner.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return text, nil
}

func (a *generatorAdapter) GenerateStream(ctx context.Context, prompt string) (domain.TextStream, error) {
	stream, err := a.inner.GenerateStream(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate stream: %w", err)
	}
	return stream, nil
}

// noopEmbedder returns an error on Embed call (used when no provider configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"courserec: embedding provider not configured (use WithOpenAI or WithEmbedder)",
	)
}

// noopGenerator returns an error on any call (used when no provider configured).
type noopGenerator struct{}

func (noopGenerator) Generate(_ context.Context, _ string) (string, error) {
	return "", errors.New(
		"courserec: generation provider not configured (use WithOpenAI or WithGenerator)",
	)
}

func (noopGenerator) GenerateStream(_ context.Context, _ string) (domain.TextStream, error) {
	return nil, errors.New(
		"courserec: generation provider not configured (use WithOpenAI or WithGenerator)",
	)
}
