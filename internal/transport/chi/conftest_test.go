package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chiRouter "github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
	healthuc "github.com/kailas-cloud/courserec/internal/usecase/health"
	quotauc "github.com/kailas-cloud/courserec/internal/usecase/quota"
	recommenduc "github.com/kailas-cloud/courserec/internal/usecase/recommend"
	usageuc "github.com/kailas-cloud/courserec/internal/usecase/usage"
)

var testSecret = []byte("test-secret")

type mockRecommender struct {
	recommendFn func(ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester) (*domain.RecommendationResult, error)
	streamFn    func(ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester) (<-chan string, error)
	courseFn    func(ctx context.Context, id string) (*recommenduc.CourseDetails, error)
	similarFn   func(ctx context.Context, courseID string, limit int) ([]domain.SimilarityMatch, error)
	explainFn   func(ctx context.Context, courseID, query string) (string, error)
}

func (m *mockRecommender) Recommend(ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester) (*domain.RecommendationResult, error) {
	if m.recommendFn != nil {
		return m.recommendFn(ctx, req, requester)
	}
	return &domain.RecommendationResult{
		Query:      req.Query,
		RequestID:  "req-1",
		SearchTime: 42 * time.Millisecond,
	}, nil
}

func (m *mockRecommender) RecommendStream(ctx context.Context, req *domain.RecommendationRequest, requester domain.Requester) (<-chan string, error) {
	if m.streamFn != nil {
		return m.streamFn(ctx, req, requester)
	}
	out := make(chan string)
	close(out)
	return out, nil
}

func (m *mockRecommender) CourseDetails(ctx context.Context, id string) (*recommenduc.CourseDetails, error) {
	if m.courseFn != nil {
		return m.courseFn(ctx, id)
	}
	return &recommenduc.CourseDetails{
		Course:       &domain.CourseRecord{ID: id, Title: "Quantum Mechanics"},
		HasEmbedding: true,
	}, nil
}

func (m *mockRecommender) SimilarCourses(ctx context.Context, courseID string, limit int) ([]domain.SimilarityMatch, error) {
	if m.similarFn != nil {
		return m.similarFn(ctx, courseID, limit)
	}
	return nil, nil
}

func (m *mockRecommender) ExplainCourse(ctx context.Context, courseID, query string) (string, error) {
	if m.explainFn != nil {
		return m.explainFn(ctx, courseID, query)
	}
	return "relevant because", nil
}

func (m *mockRecommender) Stats(ctx context.Context) recommenduc.Stats {
	return recommenduc.Stats{TotalCourses: 10, CoursesWithEmbeddings: 8, EmbeddingCoverage: 0.8}
}

type mockQuota struct {
	rate     quotauc.Decision
	daily    quotauc.Decision
	info     quotauc.Info
	recorded int
	recordFn func(ctx context.Context)
	resetFn  func(userID string) bool
	setFn    func(userID string, limit int) bool
}

func newMockQuota() *mockQuota {
	return &mockQuota{
		rate:  quotauc.Decision{Allowed: true, Limit: 20},
		daily: quotauc.Decision{Allowed: true, Limit: 50},
	}
}

func (m *mockQuota) CheckRateLimit(context.Context, domain.Requester) quotauc.Decision { return m.rate }
func (m *mockQuota) CheckQuota(context.Context, domain.Requester) quotauc.Decision     { return m.daily }
func (m *mockQuota) RecordRequest(ctx context.Context, _ domain.Requester) {
	m.recorded++
	if m.recordFn != nil {
		m.recordFn(ctx)
	}
}
func (m *mockQuota) QuotaInfo(context.Context, domain.Requester) quotauc.Info          { return m.info }

func (m *mockQuota) ResetQuota(_ context.Context, userID string) bool {
	if m.resetFn != nil {
		return m.resetFn(userID)
	}
	return true
}

func (m *mockQuota) SetQuotaOverride(_ context.Context, userID string, limit int) bool {
	if m.setFn != nil {
		return m.setFn(userID, limit)
	}
	return true
}

type mockUsage struct {
	records []domain.UsageRecord
	stats   usageuc.SystemStats
}

func (m *mockUsage) UserRecords(string, usageuc.Period) []domain.UsageRecord { return m.records }
func (m *mockUsage) SystemStats(usageuc.Period) usageuc.SystemStats          { return m.stats }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report {
	if m.report.Status == "" {
		return healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"cache": healthuc.CheckOK}}
	}
	return m.report
}

type testDeps struct {
	recommend *mockRecommender
	quota     *mockQuota
	usage     *mockUsage
	health    *mockHealth
}

func newTestServer(t *testing.T) (*httptest.Server, *testDeps) {
	t.Helper()

	deps := &testDeps{
		recommend: &mockRecommender{},
		quota:     newMockQuota(),
		usage:     &mockUsage{},
		health:    &mockHealth{},
	}

	srv := NewServer(deps.recommend, deps.quota, deps.usage, deps.health, zap.NewNop())

	r := chiRouter.NewRouter()
	r.Use(RequesterMiddleware(testSecret, zap.NewNop()))
	srv.Register(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, deps
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func signToken(t *testing.T, subject, role, department string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:       role,
		Department: department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
