package courserec

import (
	"context"
	"time"

	usageuc "github.com/kailas-cloud/courserec/internal/usecase/usage"
)

// UsageEntry is one recorded pipeline invocation.
type UsageEntry struct {
	UserID       string
	Endpoint     string
	RequestType  string
	Timestamp    time.Time
	ResponseTime time.Duration
	Success      bool
	ErrorMessage string
	Metadata     map[string]string
}

// UsageStats aggregates pipeline invocations over a period.
type UsageStats struct {
	TotalRequests       int
	SuccessfulRequests  int
	UniqueUsers         int
	SuccessRate         float64
	AverageResponseTime time.Duration
}

// UserUsage returns the recorded invocations for a user between from and
// to. Zero bounds are unbounded.
func (c *Client) UserUsage(ctx context.Context, userID string, from, to time.Time) []UsageEntry {
	start := time.Now()
	defer func() { c.obs.observe("usage.user", start, nil) }()

	records := c.usageSvc.UserRecords(userID, usageuc.Period{From: from, To: to})
	entries := make([]UsageEntry, len(records))
	for i, r := range records {
		entries[i] = UsageEntry{
			UserID:       r.UserID,
			Endpoint:     r.Endpoint,
			RequestType:  r.RequestType,
			Timestamp:    r.Timestamp,
			ResponseTime: r.ResponseTime,
			Success:      r.Success,
			ErrorMessage: r.ErrorMessage,
			Metadata:     r.Metadata,
		}
	}
	return entries
}

// SystemUsage aggregates all recorded invocations between from and to.
// Zero bounds are unbounded.
func (c *Client) SystemUsage(ctx context.Context, from, to time.Time) UsageStats {
	start := time.Now()
	defer func() { c.obs.observe("usage.system", start, nil) }()

	stats := c.usageSvc.SystemStats(usageuc.Period{From: from, To: to})
	return UsageStats{
		TotalRequests:       stats.TotalRequests,
		SuccessfulRequests:  stats.SuccessfulRequests,
		UniqueUsers:         stats.UniqueUsers,
		SuccessRate:         stats.SuccessRate,
		AverageResponseTime: stats.AverageResponseTime,
	}
}
