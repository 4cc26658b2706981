package recommend

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
)

type mockRetriever struct {
	embedFn          func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	searchFn         func(ctx context.Context, vec []float32, filter domain.CourseFilter, limit int) []domain.SimilarityMatch
	searchByCourseFn func(ctx context.Context, courseID string, limit int) ([]domain.SimilarityMatch, error)
	courseFn         func(ctx context.Context, id string) (*domain.CourseRecord, error)
	statsFn          func(ctx context.Context) (int, int)
}

func (m *mockRetriever) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn == nil {
		return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
	}
	return m.embedFn(ctx, text)
}

func (m *mockRetriever) Search(
	ctx context.Context, vec []float32, filter domain.CourseFilter, limit int,
) []domain.SimilarityMatch {
	if m.searchFn == nil {
		return nil
	}
	return m.searchFn(ctx, vec, filter, limit)
}

func (m *mockRetriever) SearchByCourse(
	ctx context.Context, courseID string, limit int,
) ([]domain.SimilarityMatch, error) {
	if m.searchByCourseFn == nil {
		return nil, nil
	}
	return m.searchByCourseFn(ctx, courseID, limit)
}

func (m *mockRetriever) Course(ctx context.Context, id string) (*domain.CourseRecord, error) {
	if m.courseFn == nil {
		return nil, domain.ErrCourseNotFound
	}
	return m.courseFn(ctx, id)
}

func (m *mockRetriever) CorpusStats(ctx context.Context) (int, int) {
	if m.statsFn == nil {
		return 0, 0
	}
	return m.statsFn(ctx)
}

type mockGenerator struct {
	generateFn func(ctx context.Context, prompt string) (string, error)
	streamFn   func(ctx context.Context, prompt string) (domain.TextStream, error)
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if m.generateFn == nil {
		return "generated text", nil
	}
	return m.generateFn(ctx, prompt)
}

func (m *mockGenerator) GenerateStream(ctx context.Context, prompt string) (domain.TextStream, error) {
	if m.streamFn == nil {
		return &mockStream{}, nil
	}
	return m.streamFn(ctx, prompt)
}

type mockStream struct {
	chunks []string
	i      int

	mu     sync.Mutex
	closed bool
}

func (m *mockStream) Recv() (string, error) {
	if m.i >= len(m.chunks) {
		return "", io.EOF
	}
	c := m.chunks[m.i]
	m.i++
	return c, nil
}

func (m *mockStream) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockStream) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// mockLedger signals on done for tests that observe the record from
// another goroutine.
type mockLedger struct {
	mu      sync.Mutex
	records []domain.UsageRecord
	ctxErrs []error
	done    chan struct{}
}

func newMockLedger() *mockLedger {
	return &mockLedger{done: make(chan struct{}, 8)}
}

func (m *mockLedger) Record(ctx context.Context, rec domain.UsageRecord) {
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	m.mu.Unlock()
	m.done <- struct{}{}
}

func (m *mockLedger) all() []domain.UsageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.UsageRecord(nil), m.records...)
}

func (m *mockLedger) contextErrs() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.ctxErrs...)
}

func newTestService(r *mockRetriever, g *mockGenerator, l *mockLedger) *Service {
	svc := New(r, g, l, zap.NewNop())
	svc.newID = func() string { return "req-1" }
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) }
	return svc
}

func match(id string, score float64) domain.SimilarityMatch {
	return domain.SimilarityMatch{
		Course: &domain.CourseRecord{
			ID: id, Code: "CS" + id, Title: "Course " + id,
			Description: "about " + id, Level: 300, Department: "eecs", Active: true,
		},
		Score: score,
	}
}

var testRequester = domain.Requester{ID: "u1", Role: domain.RoleStudent}
