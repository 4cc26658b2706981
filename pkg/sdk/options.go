package courserec

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey", "redis", or "memory"
	addrs    []string
	password string

	corpusPath string

	apiKey          string
	baseURL         string
	embeddingModel  string
	generationModel string
	maxTokens       int
	temperature     float32
	concurrency     int

	embedder  Embedder
	generator Generator

	departmentQuotas map[string]int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemory uses an in-process cache instead of an external store.
// Rate, quota, and usage counters do not survive a restart.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
	})
}

// WithCorpusFile sets the course catalog snapshot path.
func WithCorpusFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.corpusPath = path
	})
}

// WithOpenAI configures the OpenAI-compatible model provider. baseURL is
// optional; empty uses the OpenAI default.
func WithOpenAI(apiKey string, baseURL ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		if len(baseURL) > 0 {
			c.baseURL = baseURL[0]
		}
	})
}

// WithModels overrides the embedding and generation model names.
// Defaults: text-embedding-ada-002 and gpt-4o.
func WithModels(embedding, generation string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = embedding
		c.generationModel = generation
	})
}

// WithGenerationParams sets chat completion limits for generated text.
func WithGenerationParams(maxTokens int, temperature float32) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTokens = maxTokens
		c.temperature = temperature
	})
}

// WithConcurrency caps in-flight provider requests. Default: 5.
func WithConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.concurrency = n
	})
}

// WithEmbedder sets a custom text embedding provider, replacing the
// OpenAI-backed one.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator sets a custom text generation provider, replacing the
// OpenAI-backed one.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithDepartmentQuotas sets per-department daily quota limits. They take
// precedence over role defaults; per-user overrides beat both.
func WithDepartmentQuotas(quotas map[string]int) Option {
	return optionFunc(func(c *clientConfig) {
		c.departmentQuotas = quotas
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
