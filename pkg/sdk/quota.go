package courserec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/courserec/internal/domain"
)

// Limit errors returned by Recommend and RecommendStream.
// Use errors.Is() to check.
var (
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrQuotaExceeded = errors.New("daily quota exceeded")
)

// QuotaStatus reports an identity's standing against its daily quota.
type QuotaStatus struct {
	UserID    string
	Used      int64
	Limit     int64
	Remaining int64
	ResetsAt  time.Time
}

// admit gates a pipeline call behind the rate and quota windows.
func (c *Client) admit(ctx context.Context, requester domain.Requester) error {
	if rate := c.quotaSvc.CheckRateLimit(ctx, requester); !rate.Allowed {
		return fmt.Errorf("%w: retry in %s", ErrRateLimited, rate.RetryAfter.Round(time.Second))
	}
	if daily := c.quotaSvc.CheckQuota(ctx, requester); !daily.Allowed {
		return fmt.Errorf("%w: limit %d, resets at %s",
			ErrQuotaExceeded, daily.Limit, daily.ResetAt.UTC().Format(time.RFC3339))
	}
	return nil
}

// Quota returns the identity's current daily quota standing.
func (c *Client) Quota(ctx context.Context, id Identity) QuotaStatus {
	start := time.Now()
	defer func() { c.obs.observe("quota", start, nil) }()

	info := c.quotaSvc.QuotaInfo(ctx, id.requester())
	return QuotaStatus{
		UserID:    info.UserID,
		Used:      info.Current,
		Limit:     info.Limit,
		Remaining: info.Remaining,
		ResetsAt:  info.ResetAt,
	}
}

// ResetQuota clears today's consumption for a user. Reports whether the
// counter was removed from the cache.
func (c *Client) ResetQuota(ctx context.Context, userID string) bool {
	start := time.Now()
	defer func() { c.obs.observe("quota.reset", start, nil) }()

	return c.quotaSvc.ResetQuota(ctx, userID)
}

// SetQuotaOverride pins a per-user daily limit that takes precedence over
// department and role defaults.
func (c *Client) SetQuotaOverride(ctx context.Context, userID string, dailyLimit int) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("quota.override", start, err) }()

	if dailyLimit <= 0 {
		err = fmt.Errorf("%w: daily limit must be positive, got %d", ErrValidation, dailyLimit)
		return err
	}
	if !c.quotaSvc.SetQuotaOverride(ctx, userID, dailyLimit) {
		err = errors.New("courserec: failed to store quota override")
		return err
	}
	return nil
}
