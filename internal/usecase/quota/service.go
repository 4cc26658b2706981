package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
)

const (
	rateKeyPrefix     = domain.KeyPrefix + "rate:"
	quotaKeyPrefix    = domain.KeyPrefix + "quota:"
	overrideKeyPrefix = domain.KeyPrefix + "quota_override:"

	rateWindow = time.Minute
	// Daily counters outlive the day by a margin so a clock skewed reader
	// never sees a vanished counter mid-period.
	quotaKeyTTL = 48 * time.Hour
	// OverrideTTL bounds how long an administrative quota override holds.
	OverrideTTL = 30 * 24 * time.Hour
)

// Decision is the structured outcome of a rate or quota check. A negative
// decision is not an error; it carries machine-readable retry timing.
type Decision struct {
	Allowed    bool
	Current    int64
	Limit      int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Info reports a requester's standing against the daily quota.
type Info struct {
	UserID    string    `json:"user_id"`
	Current   int64     `json:"current_usage"`
	Limit     int64     `json:"quota_limit"`
	Remaining int64     `json:"remaining"`
	ResetAt   time.Time `json:"reset_time"`
}

// store is the consumer interface over the shared cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
	Delete(ctx context.Context, key string) bool
	Increment(ctx context.Context, key string, amount int64, ttl time.Duration) int64
}

// Service gates requests behind a per-minute rate limit and a daily quota,
// both keyed by requester identity. Counters live in the shared cache; a
// cache outage fails open (count 0), never rejecting a request by accident.
type Service struct {
	cache            store
	departmentQuotas map[string]int
	logger           *zap.Logger
	now              func() time.Time
}

// New creates a quota controller. departmentQuotas maps a department name
// to its daily limit and may be nil.
func New(cache store, departmentQuotas map[string]int, logger *zap.Logger) *Service {
	return &Service{
		cache:            cache,
		departmentQuotas: departmentQuotas,
		logger:           logger,
		now:              time.Now,
	}
}

// CheckRateLimit admits or rejects a request against the requester's
// per-minute window, incrementing the window counter on admission. The
// read-then-increment pair is not atomic across concurrent callers: a burst
// from one identity can transiently admit slightly over the limit. The
// counter itself is INCRBY-backed and cannot corrupt.
func (s *Service) CheckRateLimit(ctx context.Context, req domain.Requester) Decision {
	now := s.now().UTC()
	key := rateKeyPrefix + req.ID + ":" + now.Format("200601021504")
	limit := int64(req.Role.RateLimit())
	resetAt := now.Truncate(rateWindow).Add(rateWindow)

	current := s.count(ctx, key)
	if current >= limit {
		return Decision{
			Allowed:    false,
			Current:    current,
			Limit:      limit,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}

	n := s.cache.Increment(ctx, key, 1, rateWindow)
	if n == 0 {
		// Cache down: fail open, report the optimistic count.
		n = current + 1
	}
	return Decision{Allowed: true, Current: n, Limit: limit, ResetAt: resetAt}
}

// CheckQuota reports whether the requester is inside today's quota. The
// check never consumes quota; RecordRequest does that after successful work,
// so repeated idempotent checks are free.
func (s *Service) CheckQuota(ctx context.Context, req domain.Requester) Decision {
	now := s.now().UTC()
	current := s.count(ctx, s.dailyKey(req.ID, now))
	limit := s.resolveDailyLimit(ctx, req)
	resetAt := nextUTCMidnight(now)

	return Decision{
		Allowed: current < limit,
		Current: current,
		Limit:   limit,
		ResetAt: resetAt,
	}
}

// RecordRequest counts one accepted request against today's quota.
func (s *Service) RecordRequest(ctx context.Context, req domain.Requester) {
	now := s.now().UTC()
	if n := s.cache.Increment(ctx, s.dailyKey(req.ID, now), 1, quotaKeyTTL); n == 0 {
		s.logger.Warn("Failed to record quota usage", zap.String("user_id", req.ID))
	}
}

// QuotaInfo reports current standing without side effects.
func (s *Service) QuotaInfo(ctx context.Context, req domain.Requester) Info {
	now := s.now().UTC()
	current := s.count(ctx, s.dailyKey(req.ID, now))
	limit := s.resolveDailyLimit(ctx, req)

	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}
	return Info{
		UserID:    req.ID,
		Current:   current,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   nextUTCMidnight(now),
	}
}

// ResetQuota clears today's accumulated count for a user. Admin operation.
func (s *Service) ResetQuota(ctx context.Context, userID string) bool {
	return s.cache.Delete(ctx, s.dailyKey(userID, s.now().UTC()))
}

// SetQuotaOverride installs a per-user daily limit that supersedes role and
// department defaults for OverrideTTL. Admin operation.
func (s *Service) SetQuotaOverride(ctx context.Context, userID string, limit int) bool {
	if limit <= 0 {
		return false
	}
	key := overrideKeyPrefix + userID
	return s.cache.Set(ctx, key, []byte(strconv.Itoa(limit)), OverrideTTL)
}

// resolveDailyLimit applies the precedence: per-user override, then
// department limit, then role default.
func (s *Service) resolveDailyLimit(ctx context.Context, req domain.Requester) int64 {
	if data, ok := s.cache.Get(ctx, overrideKeyPrefix+req.ID); ok {
		if v, err := strconv.ParseInt(string(data), 10, 64); err == nil && v > 0 {
			return v
		}
		s.logger.Warn("Ignoring malformed quota override", zap.String("user_id", req.ID))
	}
	if req.Department != "" {
		if v, ok := s.departmentQuotas[req.Department]; ok {
			return int64(v)
		}
	}
	return int64(req.Role.DailyQuota())
}

func (s *Service) dailyKey(userID string, now time.Time) string {
	return fmt.Sprintf("%s%s:%s", quotaKeyPrefix, userID, now.Format("2006-01-02"))
}

func (s *Service) count(ctx context.Context, key string) int64 {
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		s.logger.Warn("Malformed counter value", zap.String("key", key), zap.Error(err))
		return 0
	}
	return n
}

func nextUTCMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
