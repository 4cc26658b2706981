package retrieval

import (
	"context"

	"github.com/kailas-cloud/courserec/internal/domain"
)

// Corpus reads course records for ranking and lookup.
type Corpus interface {
	Snapshot(ctx context.Context) []*domain.CourseRecord
	Get(ctx context.Context, id string) (*domain.CourseRecord, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
	DeleteEmbedding(ctx context.Context, id string) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
