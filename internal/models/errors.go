package models

import "fmt"

// DataValidationError covers missing columns, unparseable values,
// non-positive capacities, and due_by <= ready_time. It aborts the
// pipeline — see spec §7.
type DataValidationError struct {
	Field  string
	Reason string
}

func (e *DataValidationError) Error() string {
	return fmt.Sprintf("data validation: %s: %s", e.Field, e.Reason)
}

// RouteInfeasibilityError marks that no path exists under constraints for a
// given cargo. It is not surfaced as a Go error in practice (the enumerator
// falls back to a DENIED RouteOption and a baseline_exception alert) but is
// kept as a typed value so callers that do want to branch on it can.
type RouteInfeasibilityError struct {
	CargoID string
}

func (e *RouteInfeasibilityError) Error() string {
	return fmt.Sprintf("no feasible route for cargo %s", e.CargoID)
}

// CapacityBreachError records that the emergency override boarded cargo
// beyond nominal flight capacity. Recoverable: the caller emits a critical
// alert and continues.
type CapacityBreachError struct {
	FlightID string
	Axis     string // "weight" or "volume"
	Over     float64
}

func (e *CapacityBreachError) Error() string {
	return fmt.Sprintf("flight %s: %s capacity breached by %.2f", e.FlightID, e.Axis, e.Over)
}

// PriorityGuaranteeViolationError records that a high or medium cargo ended
// rolled or denied. Recoverable: the caller emits a critical alert and the
// pipeline completes.
type PriorityGuaranteeViolationError struct {
	CargoID  string
	Priority Priority
}

func (e *PriorityGuaranteeViolationError) Error() string {
	return fmt.Sprintf("priority guarantee violated for %s cargo %s", e.Priority, e.CargoID)
}

// OptimizationTimeoutError records that the GA's wall-clock budget expired
// before termination criteria were met. Recoverable: the caller returns the
// best individual found so far plus an info alert.
type OptimizationTimeoutError struct {
	Generation int
}

func (e *OptimizationTimeoutError) Error() string {
	return fmt.Sprintf("optimization budget exhausted at generation %d", e.Generation)
}
