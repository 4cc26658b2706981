package recommend

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
)

const (
	endpointRecommendations = "recommendations"

	emptySearchExplanation = "No courses found matching your query and level preferences."
	fallbackExplanation    = "Unable to generate explanation at this time."
)

// Service orchestrates the recommendation pipeline: describe the ideal
// course for a query, vectorize it, rank the corpus, optionally enrich the
// top matches with per-course explanations, and account the invocation.
type Service struct {
	retriever retriever
	generator domain.Generator
	ledger    ledger
	logger    *zap.Logger
	newID     func() string
	now       func() time.Time
}

func New(r retriever, g domain.Generator, l ledger, logger *zap.Logger) *Service {
	return &Service{
		retriever: r,
		generator: g,
		ledger:    l,
		logger:    logger,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Recommend runs the blocking pipeline. Usage is recorded exactly once per
// admitted invocation, success or not; requests that fail validation are
// not counted. Explanation enrichment degrades to a fallback string so a
// flaky provider never sinks an otherwise complete result.
func (s *Service) Recommend(
	ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester,
) (result *domain.RecommendationResult, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := s.now()
	requestID := s.newID()
	log := s.logger.With(
		zap.String("request_id", requestID),
		zap.String("user_id", requester.ID),
	)
	log.Info("Starting recommendation request", zap.Int("query_length", len(req.Query)))

	defer func() {
		meta := map[string]string{
			"request_id":   requestID,
			"query_length": strconv.Itoa(len(req.Query)),
		}
		if result != nil {
			meta["results_returned"] = strconv.Itoa(len(result.Matches))
		}
		// A caller cancellation must not cut the ledger write short.
		s.record(context.WithoutCancel(ctx), requester, "course_recommendation", start, err, meta)
	}()

	description, err := s.generator.Generate(ctx, describePrompt(req.Query))
	if err != nil {
		return nil, fmt.Errorf("describe query: %w", err)
	}

	embedded, err := s.retriever.Embed(ctx, description)
	if err != nil {
		return nil, err
	}

	filter := domain.CourseFilter{Levels: req.Levels, IncludeInactive: req.IncludeInactive}
	matches := s.retriever.Search(ctx, embedded.Embedding, filter, candidateLimit(req.MaxResults))
	if len(matches) == 0 {
		log.Warn("No similar courses found")
		return &domain.RecommendationResult{
			Query:             req.Query,
			SearchTime:        s.now().Sub(start),
			RequestID:         requestID,
			SearchExplanation: emptySearchExplanation,
		}, nil
	}

	found := len(matches)
	if len(matches) > req.MaxResults {
		matches = matches[:req.MaxResults]
	}
	if req.IncludeExplanations {
		s.explainMatches(ctx, log, matches, req.Query)
	}

	log.Info("Completed recommendation request",
		zap.Int("results", len(matches)),
		zap.Duration("elapsed", s.now().Sub(start)))

	return &domain.RecommendationResult{
		Matches:              matches,
		Query:                req.Query,
		TotalCoursesSearched: found,
		SearchTime:           s.now().Sub(start),
		RequestID:            requestID,
		SearchExplanation:    fmt.Sprintf("Found %d relevant courses based on your interests.", found),
		GeneratedDescription: description,
	}, nil
}

// CourseDetails describes a single course and its search readiness.
type CourseDetails struct {
	Course       *domain.CourseRecord `json:"course"`
	HasEmbedding bool                 `json:"has_embedding"`
}

func (s *Service) CourseDetails(ctx context.Context, id string) (*CourseDetails, error) {
	course, err := s.retriever.Course(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CourseDetails{Course: course, HasEmbedding: course.HasEmbedding()}, nil
}

// SimilarCourses ranks the catalog against an existing course, excluding
// the course itself.
func (s *Service) SimilarCourses(ctx context.Context, courseID string, limit int) ([]domain.SimilarityMatch, error) {
	if limit <= 0 || limit > domain.MaxResultCount {
		limit = 10
	}
	return s.retriever.SearchByCourse(ctx, courseID, limit)
}

// ExplainCourse asks the generator why a specific course fits a query.
// Generation failures degrade to a fallback string; only a missing course
// is an error.
func (s *Service) ExplainCourse(ctx context.Context, courseID, query string) (string, error) {
	course, err := s.retriever.Course(ctx, courseID)
	if err != nil {
		return "", err
	}
	text, err := s.generator.Generate(ctx, explainPrompt(course, query))
	if err != nil {
		s.logger.Warn("Failed to explain course",
			zap.String("course_id", courseID), zap.Error(err))
		return fallbackExplanation, nil
	}
	return text, nil
}

// Stats summarizes corpus readiness for serving recommendations.
type Stats struct {
	TotalCourses          int     `json:"total_courses"`
	CoursesWithEmbeddings int     `json:"courses_with_embeddings"`
	EmbeddingCoverage     float64 `json:"embedding_coverage"`
}

func (s *Service) Stats(ctx context.Context) Stats {
	total, embedded := s.retriever.CorpusStats(ctx)
	stats := Stats{TotalCourses: total, CoursesWithEmbeddings: embedded}
	if total > 0 {
		stats.EmbeddingCoverage = float64(embedded) / float64(total)
	}
	return stats
}

func (s *Service) explainMatches(
	ctx context.Context, log *zap.Logger, matches []domain.SimilarityMatch, query string,
) {
	for i := range matches {
		if matches[i].Explanation != "" {
			continue
		}
		text, err := s.generator.Generate(ctx, explainPrompt(matches[i].Course, query))
		if err != nil {
			log.Warn("Explanation enrichment failed",
				zap.String("course_id", matches[i].Course.ID), zap.Error(err))
			matches[i].Explanation = fallbackExplanation
			continue
		}
		matches[i].Explanation = text
	}
}

func (s *Service) record(
	ctx context.Context, requester domain.Requester,
	requestType string, start time.Time, err error, meta map[string]string,
) {
	rec := domain.UsageRecord{
		UserID:       requester.ID,
		Endpoint:     endpointRecommendations,
		RequestType:  requestType,
		ResponseTime: s.now().Sub(start),
		Success:      err == nil,
		Metadata:     meta,
	}
	if err != nil {
		rec.ErrorMessage = err.Error()
	}
	s.ledger.Record(ctx, rec)
}

// candidateLimit widens the search past the requested result count so
// post-ranking truncation still has headroom, capped at the catalog-wide
// result ceiling.
func candidateLimit(maxResults int) int {
	n := maxResults * 3
	if n > domain.MaxResultCount {
		n = domain.MaxResultCount
	}
	return n
}
