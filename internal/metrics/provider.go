package metrics

import "github.com/prometheus/client_golang/prometheus"

// Provider Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courserec",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "courserec",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courserec",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courserec",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courserec",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courserec",
			Name:      "generation_requests_total",
			Help:      "Total number of text generation requests",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "courserec",
			Name:      "generation_request_duration_seconds",
			Help:      "Text generation request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courserec",
			Name:      "generation_tokens_total",
			Help:      "Total generation tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	GenerationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courserec",
			Name:      "generation_errors_total",
			Help:      "Total generation errors",
		},
		[]string{"provider", "model", "error_type"},
	)
)

var providerMetricsRegistered bool

// RegisterProviderMetrics registers provider metrics. Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingErrorsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(GenerationTokensTotal)
	prometheus.MustRegister(GenerationErrorsTotal)
	providerMetricsRegistered = true
}
