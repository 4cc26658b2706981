package usage

import (
	"time"

	"github.com/kailas-cloud/courserec/internal/domain"
)

// ledger is the record source the reporting service consumes (ISP).
type ledger interface {
	ForUser(userID string, from, to time.Time) []domain.UsageRecord
	All(from, to time.Time) []domain.UsageRecord
}

// Period bounds a report. Zero values mean unbounded on that side.
type Period struct {
	From time.Time
	To   time.Time
}

// SystemStats aggregates pipeline traffic across all users.
type SystemStats struct {
	TotalRequests       int
	SuccessfulRequests  int
	UniqueUsers         int
	SuccessRate         float64
	AverageResponseTime time.Duration
	Period              Period
}

// Service computes usage reports over the ledger.
type Service struct {
	ledger ledger
}

func New(l ledger) *Service {
	return &Service{ledger: l}
}

// UserRecords returns a user's raw records within the period.
func (s *Service) UserRecords(userID string, period Period) []domain.UsageRecord {
	return s.ledger.ForUser(userID, period.From, period.To)
}

// SystemStats aggregates all traffic within the period.
func (s *Service) SystemStats(period Period) SystemStats {
	records := s.ledger.All(period.From, period.To)

	stats := SystemStats{TotalRequests: len(records), Period: period}
	if len(records) == 0 {
		return stats
	}

	users := make(map[string]struct{}, len(records))
	var totalResponse time.Duration
	for _, rec := range records {
		if rec.Success {
			stats.SuccessfulRequests++
		}
		users[rec.UserID] = struct{}{}
		totalResponse += rec.ResponseTime
	}
	stats.UniqueUsers = len(users)
	stats.SuccessRate = float64(stats.SuccessfulRequests) / float64(stats.TotalRequests)
	stats.AverageResponseTime = totalResponse / time.Duration(stats.TotalRequests)
	return stats
}
