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

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store       StorePinger
	capacity    CapacityReporter
	maxSessions int
}

// New creates a Service. capacity can be nil; maxSessions <= 0 disables the capacity check.
func New(store StorePinger, capacity CapacityReporter, maxSessions int) *Service {
	return &Service{store: store, capacity: capacity, maxSessions: maxSessions}
}

// Check runs health checks against all components.
// A failing store makes the service unhealthy; a full store only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	storeOK := s.store.Ping(ctx) == nil
	if storeOK {
		checks["sessions"] = CheckOK
	} else {
		checks["sessions"] = CheckError
	}

	if s.capacity != nil && s.maxSessions > 0 {
		if s.capacity.Len() >= s.maxSessions {
			checks["capacity"] = CheckError
		} else {
			checks["capacity"] = CheckOK
		}
	}

	status := Healthy
	switch {
	case !storeOK:
		status = Unhealthy
	case checks["capacity"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
