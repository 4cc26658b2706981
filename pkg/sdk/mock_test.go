package courserec

import (
	"context"
	"io"

	"github.com/kailas-cloud/courserec/internal/domain"
	healthuc "github.com/kailas-cloud/courserec/internal/usecase/health"
	quotauc "github.com/kailas-cloud/courserec/internal/usecase/quota"
	recommenduc "github.com/kailas-cloud/courserec/internal/usecase/recommend"
	usageuc "github.com/kailas-cloud/courserec/internal/usecase/usage"
)

// --- recommendUseCase mock ---

type mockRecommendUC struct {
	recommendFn func(ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester) (*domain.RecommendationResult, error)
	streamFn    func(ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester) (<-chan string, error)
	courseFn    func(ctx context.Context, id string) (*recommenduc.CourseDetails, error)
	similarFn   func(ctx context.Context, courseID string, limit int) ([]domain.SimilarityMatch, error)
	explainFn   func(ctx context.Context, courseID, query string) (string, error)
	statsFn     func(ctx context.Context) recommenduc.Stats
}

func (m *mockRecommendUC) Recommend(ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester) (*domain.RecommendationResult, error) {
	return m.recommendFn(ctx, req, requester)
}

func (m *mockRecommendUC) RecommendStream(ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester) (<-chan string, error) {
	return m.streamFn(ctx, req, requester)
}

func (m *mockRecommendUC) CourseDetails(ctx context.Context, id string) (*recommenduc.CourseDetails, error) {
	return m.courseFn(ctx, id)
}

func (m *mockRecommendUC) SimilarCourses(ctx context.Context, courseID string, limit int) ([]domain.SimilarityMatch, error) {
	return m.similarFn(ctx, courseID, limit)
}

func (m *mockRecommendUC) ExplainCourse(ctx context.Context, courseID, query string) (string, error) {
	return m.explainFn(ctx, courseID, query)
}

func (m *mockRecommendUC) Stats(ctx context.Context) recommenduc.Stats {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return recommenduc.Stats{}
}

// --- quotaUseCase mock ---

type mockQuotaUC struct {
	rate     quotauc.Decision
	daily    quotauc.Decision
	info     quotauc.Info
	recorded int
}

func newMockQuotaUC() *mockQuotaUC {
	return &mockQuotaUC{
		rate:  quotauc.Decision{Allowed: true},
		daily: quotauc.Decision{Allowed: true},
	}
}

func (m *mockQuotaUC) QuotaInfo(context.Context, domain.Requester) quotauc.Info { return m.info }

func (m *mockQuotaUC) CheckRateLimit(context.Context, domain.Requester) quotauc.Decision {
	return m.rate
}

func (m *mockQuotaUC) CheckQuota(context.Context, domain.Requester) quotauc.Decision {
	return m.daily
}

func (m *mockQuotaUC) RecordRequest(context.Context, domain.Requester) { m.recorded++ }

func (m *mockQuotaUC) ResetQuota(context.Context, string) bool { return true }

func (m *mockQuotaUC) SetQuotaOverride(context.Context, string, int) bool { return true }

// --- usageUseCase mock ---

type mockUsageUC struct {
	records []domain.UsageRecord
	stats   usageuc.SystemStats
}

func (m *mockUsageUC) UserRecords(string, usageuc.Period) []domain.UsageRecord { return m.records }

func (m *mockUsageUC) SystemStats(usageuc.Period) usageuc.SystemStats { return m.stats }

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- provider mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.fn(ctx, text)
}

type mockGenerator struct {
	generateFn func(ctx context.Context, prompt string) (string, error)
	streamFn   func(ctx context.Context, prompt string) (TextStream, error)
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return m.generateFn(ctx, prompt)
}

func (m *mockGenerator) GenerateStream(ctx context.Context, prompt string) (TextStream, error) {
	return m.streamFn(ctx, prompt)
}

type sliceStream struct {
	chunks []string
	i      int
}

func (s *sliceStream) Recv() (string, error) {
	if s.i >= len(s.chunks) {
		return "", io.EOF
	}
	chunk := s.chunks[s.i]
	s.i++
	return chunk, nil
}

func (s *sliceStream) Close() error { return nil }

// newMockClient builds a Client over the mocks, bypassing wiring.
func newMockClient(rec *mockRecommendUC, quota *mockQuotaUC, usage *mockUsageUC, health *mockHealthUC) *Client {
	if quota == nil {
		quota = newMockQuotaUC()
	}
	return &Client{
		recommendSvc: rec,
		quotaSvc:     quota,
		usageSvc:     usage,
		healthSvc:    health,
	}
}
