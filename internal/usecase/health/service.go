package health

import (
	"context"

	"github.com/nocap-labs/factstore/internal/storage/hybrid"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Writes still succeed through the
	// local fallback, so a degraded blob store never makes the service
	// unhealthy.
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

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Facts  int
}

// Service coordinates health checks.
type Service struct {
	storage StorageStater
	index   IndexCounter
}

// New creates a Service. index can be nil.
func New(storage StorageStater, index IndexCounter) *Service {
	return &Service{storage: storage, index: index}
}

// Check reports the current component states. It reads cached storage state
// rather than probing the network, so it stays cheap enough for liveness
// polling.
func (s *Service) Check(_ context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.storage.State() == hybrid.StateDegraded {
		checks["storage"] = CheckError
	} else {
		checks["storage"] = CheckOK
	}

	facts := 0
	if s.index != nil {
		facts = s.index.Len()
		checks["index"] = CheckOK
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Facts: facts}
}
