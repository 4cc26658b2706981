package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
)

var ledgerKeyPrefix = domain.KeyPrefix + "usage:"

// maxRecords bounds the in-memory window; older entries are dropped oldest
// first. The per-day cache mirror survives process restarts.
const maxRecords = 10000

const dayKeyTTL = 48 * time.Hour

// store is the consumer interface for the ledger's cache mirror (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
}

// Ledger records pipeline invocations. Record is fire-and-forget: failures
// are logged, never surfaced, so a broken ledger cannot fail a request.
type Ledger struct {
	cache  store
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	records []domain.UsageRecord
}

// New creates a usage ledger mirrored to the shared cache.
func New(cache store, logger *zap.Logger) *Ledger {
	return &Ledger{cache: cache, logger: logger, now: time.Now}
}

// Record stores a usage entry. Never returns an error.
func (l *Ledger) Record(ctx context.Context, rec domain.UsageRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now().UTC()
	}

	l.mu.Lock()
	l.records = append(l.records, rec)
	if len(l.records) > maxRecords {
		l.records = l.records[len(l.records)-maxRecords:]
	}
	l.mu.Unlock()

	l.mirrorToCache(ctx, rec)
}

// mirrorToCache appends the record to the requester's day bucket.
func (l *Ledger) mirrorToCache(ctx context.Context, rec domain.UsageRecord) {
	key := l.dayKey(rec.UserID, rec.Timestamp)

	var day []domain.UsageRecord
	if data, ok := l.cache.Get(ctx, key); ok {
		if err := json.Unmarshal(data, &day); err != nil {
			l.logger.Warn("Failed to decode usage day bucket", zap.String("key", key), zap.Error(err))
			day = nil
		}
	}
	day = append(day, rec)

	data, err := json.Marshal(day)
	if err != nil {
		l.logger.Warn("Failed to encode usage day bucket", zap.String("key", key), zap.Error(err))
		return
	}
	l.cache.Set(ctx, key, data, dayKeyTTL)
}

func (l *Ledger) dayKey(userID string, t time.Time) string {
	return fmt.Sprintf("%s%s:%s", ledgerKeyPrefix, userID, t.UTC().Format("20060102"))
}

// ForUser returns the user's records within [from, to]. Zero bounds are open.
func (l *Ledger) ForUser(userID string, from, to time.Time) []domain.UsageRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []domain.UsageRecord
	for _, rec := range l.records {
		if rec.UserID != userID {
			continue
		}
		if inRange(rec.Timestamp, from, to) {
			out = append(out, rec)
		}
	}
	return out
}

// All returns every record within [from, to]. Zero bounds are open.
func (l *Ledger) All(from, to time.Time) []domain.UsageRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []domain.UsageRecord
	for _, rec := range l.records {
		if inRange(rec.Timestamp, from, to) {
			out = append(out, rec)
		}
	}
	return out
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
