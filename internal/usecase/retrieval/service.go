package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/courserec/internal/domain"
)

// MinSimilarity is the score floor: matches at or below it are discarded.
const MinSimilarity = 0.5

// Service ranks the course corpus against query vectors.
type Service struct {
	corpus Corpus
	embed  Embedder
}

// New creates a retrieval service.
func New(corpus Corpus, embed Embedder) *Service {
	return &Service{corpus: corpus, embed: embed}
}

// Embed vectorizes text through the (cached) embedder chain.
func (s *Service) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	result, err := s.embed.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("vectorize query: %w", err)
	}
	return result, nil
}

// Search ranks all candidates passing the filter by cosine similarity
// against queryVector, drops scores at or below MinSimilarity, and returns
// at most limit matches, best first. Equal scores keep corpus load order so
// identical inputs always produce identical output. An empty or unloaded
// corpus yields an empty result, not an error.
func (s *Service) Search(
	ctx context.Context, queryVector []float32, filter domain.CourseFilter, limit int,
) []domain.SimilarityMatch {
	candidates := s.corpus.Snapshot(ctx)
	if len(candidates) == 0 {
		return nil
	}

	matches := make([]domain.SimilarityMatch, 0, len(candidates))
	for _, c := range candidates {
		if !c.HasEmbedding() || !filter.Matches(c) {
			continue
		}
		score := cosineSimilarity(queryVector, c.Embedding)
		if score <= MinSimilarity {
			continue
		}
		matches = append(matches, domain.SimilarityMatch{Course: c, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// SearchByCourse ranks the corpus against an existing course's embedding,
// excluding the course itself.
func (s *Service) SearchByCourse(
	ctx context.Context, courseID string, limit int,
) ([]domain.SimilarityMatch, error) {
	course, err := s.corpus.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.HasEmbedding() {
		return nil, nil
	}

	// +1 so the source course does not consume a result slot.
	matches := s.Search(ctx, course.Embedding, domain.CourseFilter{}, limit+1)

	out := matches[:0]
	for _, m := range matches {
		if m.Course.ID != courseID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Course returns a single course record.
func (s *Service) Course(ctx context.Context, id string) (*domain.CourseRecord, error) {
	return s.corpus.Get(ctx, id)
}

// UpdateEmbedding replaces a course's embedding vector.
func (s *Service) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	return s.corpus.UpdateEmbedding(ctx, id, embedding)
}

// DeleteEmbedding removes a course from similarity search.
func (s *Service) DeleteEmbedding(ctx context.Context, id string) error {
	return s.corpus.DeleteEmbedding(ctx, id)
}

// CorpusStats reports searchable corpus size and embedding coverage.
func (s *Service) CorpusStats(ctx context.Context) (total, embedded int) {
	for _, c := range s.corpus.Snapshot(ctx) {
		total++
		if c.HasEmbedding() {
			embedded++
		}
	}
	return total, embedded
}
