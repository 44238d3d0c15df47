// Package health aggregates component availability checks.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results. AffinityPairs is the size of
// the serving co-purchase table; zero usually means no rebuild has run.
type Report struct {
	Status        Status                 `json:"status"`
	Checks        map[string]CheckResult `json:"checks"`
	AffinityPairs int                    `json:"affinityPairs"`
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	affinity  AffinityCounter
}

// New creates a Service. embedding and affinity can be nil.
func New(db DBPinger, embedding EmbeddingChecker, affinity AffinityCounter) *Service {
	return &Service{db: db, embedding: embedding, affinity: affinity}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	pairs := 0
	if s.affinity != nil {
		if n, err := s.affinity.Count(ctx); err != nil {
			checks["affinity"] = CheckError
		} else {
			checks["affinity"] = CheckOK
			pairs = n
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, AffinityPairs: pairs}
}
