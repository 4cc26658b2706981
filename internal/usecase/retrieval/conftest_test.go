package retrieval

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/courserec/internal/domain"
)

type mockCorpus struct {
	records []*domain.CourseRecord
}

func (m *mockCorpus) Snapshot(_ context.Context) []*domain.CourseRecord {
	return m.records
}

func (m *mockCorpus) Get(_ context.Context, id string) (*domain.CourseRecord, error) {
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("course %s: %w", id, domain.ErrCourseNotFound)
}

func (m *mockCorpus) UpdateEmbedding(_ context.Context, id string, embedding []float32) error {
	for _, r := range m.records {
		if r.ID == id {
			r.Embedding = embedding
			return nil
		}
	}
	return domain.ErrCourseNotFound
}

func (m *mockCorpus) DeleteEmbedding(ctx context.Context, id string) error {
	return m.UpdateEmbedding(ctx, id, nil)
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

func course(id string, level int, dept string, active bool, vec []float32) *domain.CourseRecord {
	return &domain.CourseRecord{
		ID:         id,
		Code:       id,
		Title:      "course " + id,
		Level:      level,
		Department: dept,
		Active:     active,
		Embedding:  vec,
	}
}
