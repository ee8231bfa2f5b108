package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results. Model identifies the embedding
// model the loaded index was built with.
type Report struct {
	Status Status
	Model  string
	Checks map[string]CheckResult
}

// Service coordinates health checks. The index check is structural only:
// startup already refused to serve on a missing or inconsistent artifact,
// so an empty store here means the readiness gate was bypassed.
type Service struct {
	index     IndexReader
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(index IndexReader, embedding EmbeddingChecker) *Service {
	return &Service{index: index, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	var model string
	if s.index != nil {
		model = s.index.ModelID()
	}
	if s.index == nil || s.index.Len() == 0 {
		checks["index"] = CheckError
	} else {
		checks["index"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	if checks["index"] == CheckError {
		status = Unhealthy
	} else {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Model: model, Checks: checks}
}
