package corpus

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
)

// Loader is the bulk source of course records, called once per process
// lifetime or on explicit Refresh.
type Loader interface {
	LoadAll(ctx context.Context) ([]domain.CourseRecord, error)
}

// Store owns the in-memory course corpus. Records load lazily on first use
// and keep their load order, which is the tie-break order for ranking.
// Reads run in parallel; single-record mutation swaps the record pointer
// under the write lock, so concurrent snapshot readers never observe a
// half-written record.
type Store struct {
	loader Loader
	logger *zap.Logger

	mu      sync.RWMutex
	loaded  bool
	records []*domain.CourseRecord
	byID    map[string]int
}

// New creates a corpus store backed by the given loader.
func New(loader Loader, logger *zap.Logger) *Store {
	return &Store{loader: loader, logger: logger}
}

// ensureLoaded loads the corpus on first use. A failed load leaves the
// corpus unloaded so the next call retries.
func (s *Store) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	records, err := s.loader.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	s.replaceLocked(records)
	s.loaded = true
	s.logger.Info("Course corpus loaded", zap.Int("courses", len(records)))
	return nil
}

func (s *Store) replaceLocked(records []domain.CourseRecord) {
	s.records = make([]*domain.CourseRecord, len(records))
	s.byID = make(map[string]int, len(records))
	for i := range records {
		rec := records[i]
		s.records[i] = &rec
		s.byID[rec.ID] = i
	}
}

// Refresh reloads the corpus from the loader, replacing all records.
func (s *Store) Refresh(ctx context.Context) error {
	records, err := s.loader.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh corpus: %w", err)
	}

	s.mu.Lock()
	s.replaceLocked(records)
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("Course corpus refreshed", zap.Int("courses", len(records)))
	return nil
}

// Snapshot returns the records in load order. The slice is a copy; the
// pointed-to records are shared and must be treated as read-only.
// An unloaded or empty corpus yields nil, never an error to rank against.
func (s *Store) Snapshot(ctx context.Context) []*domain.CourseRecord {
	if err := s.ensureLoaded(ctx); err != nil {
		s.logger.Warn("Corpus unavailable", zap.Error(err))
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.CourseRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns a course by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.CourseRecord, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("course %s: %w", id, domain.ErrCourseNotFound)
	}
	return s.records[i], nil
}

// Len returns the number of loaded records without triggering a load.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// UpdateEmbedding replaces a course's embedding. The record pointer is
// swapped whole so in-flight readers keep the previous version.
func (s *Store) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("course %s: %w", id, domain.ErrCourseNotFound)
	}

	updated := *s.records[i]
	updated.Embedding = embedding
	s.records[i] = &updated
	return nil
}

// DeleteEmbedding clears a course's embedding, removing it from similarity
// search until a new vector is computed.
func (s *Store) DeleteEmbedding(ctx context.Context, id string) error {
	return s.UpdateEmbedding(ctx, id, nil)
}
