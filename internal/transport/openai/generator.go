package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
	"github.com/kailas-cloud/courserec/internal/metrics"
)

// Generator produces advisory text via OpenAI-compatible chat completions.
type Generator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	user        string
	provider    string
	limiter     *Limiter
	logger      *zap.Logger
}

// GeneratorConfig holds the text generation provider settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	User        string
	Provider    string
	Limiter     *Limiter
	Logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat completion provider.
// The limiter is shared with the embedding client; pass nil for an
// unshared default.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewLimiter(DefaultConcurrency)
	}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		user:        cfg.User,
		provider:    cfg.Provider,
		limiter:     limiter,
		logger:      cfg.Logger,
	}
}

// Generate implements domain.Generator for the blocking path.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.acquire(ctx); err != nil {
		return "", fmt.Errorf("acquire provider slot: %w", err)
	}
	defer g.limiter.release()

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, g.request(prompt, false))
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, "api_error").Inc()
		return "", parseAPIError("generation", err)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, "empty_response").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrUpstreamUnavailable)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "total").
			Add(float64(resp.Usage.TotalTokens))
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateStream implements domain.Generator for the streaming path. The
// provider slot stays held until the returned stream is closed.
func (g *Generator) GenerateStream(ctx context.Context, prompt string) (domain.TextStream, error) {
	if err := g.limiter.acquire(ctx); err != nil {
		return nil, fmt.Errorf("acquire provider slot: %w", err)
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, g.request(prompt, true))
	if err != nil {
		g.limiter.release()
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, "api_error").Inc()
		return nil, parseAPIError("generation", err)
	}
	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()

	return &chatStream{inner: stream, release: g.limiter.release}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (g *Generator) request(prompt string, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Stream:      stream,
		User:        g.user,
	}
}

// chatStream adapts a chat completion stream to domain.TextStream and
// returns the semaphore slot on Close.
type chatStream struct {
	inner   *openai.ChatCompletionStream
	release func()
	once    sync.Once
}

func (s *chatStream) Recv() (string, error) {
	resp, err := s.inner.Recv()
	if errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	if err != nil {
		return "", parseAPIError("generation", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *chatStream) Close() error {
	s.once.Do(func() {
		s.inner.Close()
		s.release()
	})
	return nil
}
