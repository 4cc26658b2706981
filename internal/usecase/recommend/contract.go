package recommend

import (
	"context"

	"github.com/kailas-cloud/courserec/internal/domain"
)

// retriever is the slice of the retrieval engine the pipeline consumes (ISP).
type retriever interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	Search(ctx context.Context, queryVector []float32, filter domain.CourseFilter, limit int) []domain.SimilarityMatch
	SearchByCourse(ctx context.Context, courseID string, limit int) ([]domain.SimilarityMatch, error)
	Course(ctx context.Context, id string) (*domain.CourseRecord, error)
	CorpusStats(ctx context.Context) (total, embedded int)
}

// ledger records pipeline invocations for usage reporting.
type ledger interface {
	Record(ctx context.Context, rec domain.UsageRecord)
}
