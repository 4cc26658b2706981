package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain. Token counts are zero on cache hits.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Generator produces text from a prompt via an external model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStream(ctx context.Context, prompt string) (TextStream, error)
}

// TextStream is a finite, non-restartable sequence of text chunks.
// Recv returns io.EOF when the stream is exhausted. Close releases the
// upstream request and is safe to call after a partial read.
type TextStream interface {
	Recv() (string, error)
	Close() error
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
