package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; the service still answers, possibly
	// without caching or enrichment.
	Degraded Status = "degraded"
	// Unhealthy indicates no component is operational.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks across the cache backend and the two
// model providers.
type Service struct {
	cache      CachePinger
	embedding  ProviderChecker
	generation ProviderChecker
}

// New creates a Service. embedding and generation can be nil.
func New(cache CachePinger, embedding, generation ProviderChecker) *Service {
	return &Service{cache: cache, embedding: embedding, generation: generation}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.cache.Ping(ctx); err != nil {
		checks["cache"] = CheckError
	} else {
		checks["cache"] = CheckOK
	}
	if s.embedding != nil {
		checks["embedding"] = providerCheck(ctx, s.embedding)
	}
	if s.generation != nil {
		checks["generation"] = providerCheck(ctx, s.generation)
	}

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func providerCheck(ctx context.Context, p ProviderChecker) CheckResult {
	if err := p.HealthCheck(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
