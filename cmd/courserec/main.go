package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/cache"
	"github.com/kailas-cloud/courserec/internal/config"
	dbRedis "github.com/kailas-cloud/courserec/internal/db/redis"
	logpkg "github.com/kailas-cloud/courserec/internal/logger"
	"github.com/kailas-cloud/courserec/internal/metrics"
	"github.com/kailas-cloud/courserec/internal/repository/corpus"
	"github.com/kailas-cloud/courserec/internal/repository/embcache"
	"github.com/kailas-cloud/courserec/internal/repository/gencache"
	usagerepo "github.com/kailas-cloud/courserec/internal/repository/usage"
	chiTransport "github.com/kailas-cloud/courserec/internal/transport/chi"
	openaiProvider "github.com/kailas-cloud/courserec/internal/transport/openai"
	healthuc "github.com/kailas-cloud/courserec/internal/usecase/health"
	quotauc "github.com/kailas-cloud/courserec/internal/usecase/quota"
	recommenduc "github.com/kailas-cloud/courserec/internal/usecase/recommend"
	retrievaluc "github.com/kailas-cloud/courserec/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/courserec/internal/usecase/usage"
	"github.com/kailas-cloud/courserec/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting courserec API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// rueidis speaks both the Redis and Valkey protocols; one store serves
	// either driver setting.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	// Shared cache over the store; each component namespaces its own keys.
	sharedCache := cache.NewStoreCache(store, time.Hour, logger)

	// One limiter shared by both providers caps concurrent upstream calls.
	limiter := openaiProvider.NewLimiter(cfg.Provider.Concurrency)

	baseEmbedder := openaiProvider.NewEmbedder(&openaiProvider.EmbedderConfig{
		APIKey:   cfg.Provider.APIKey,
		BaseURL:  cfg.Provider.BaseURL,
		Model:    cfg.Provider.EmbeddingModel,
		Provider: "openai",
		Limiter:  limiter,
		Logger:   logger,
	})
	embedder := embcache.New(baseEmbedder, sharedCache, 0, metrics.EmbeddingCacheTotal, logger)

	baseGenerator := openaiProvider.NewGenerator(&openaiProvider.GeneratorConfig{
		APIKey:      cfg.Provider.APIKey,
		BaseURL:     cfg.Provider.BaseURL,
		Model:       cfg.Provider.GenerationModel,
		MaxTokens:   cfg.Provider.MaxTokens,
		Temperature: cfg.Provider.Temperature,
		Provider:    "openai",
		Limiter:     limiter,
		Logger:      logger,
	})
	generator := gencache.New(baseGenerator, sharedCache, 0)
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Provider.EmbeddingModel),
		zap.String("generation_model", cfg.Provider.GenerationModel),
		zap.Int("concurrency", cfg.Provider.Concurrency),
	)

	// Course catalog, loaded lazily on first search.
	corpusStore := corpus.New(corpus.NewFileLoader(cfg.Corpus.SnapshotPath), logger)

	// Use case services
	retrievalSvc := retrievaluc.New(corpusStore, embedder)
	ledger := usagerepo.New(sharedCache, logger)
	quotaSvc := quotauc.New(sharedCache, cfg.Limits.DepartmentQuotas, logger)
	recommendSvc := recommenduc.New(retrievalSvc, generator, ledger, logger)
	usageSvc := usageuc.New(ledger)
	healthSvc := healthuc.New(store, baseEmbedder, baseGenerator)

	server := chiTransport.NewServer(recommendSvc, quotaSvc, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.RequesterMiddleware([]byte(cfg.Auth.JWTSecret), logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
