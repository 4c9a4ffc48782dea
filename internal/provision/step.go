// Package provision contains the ordered configuration-step engine:
// the steps that converge a freshly flashed image towards the appliance
// configuration, and the orchestrator that runs them. Every step is
// idempotent, so a partial prior run is recovered by simply running the
// whole sequence again.
package provision

import (
	"context"
)

// Outcome reports what a step did to the system.
type Outcome int

const (
	// Changed means the step mutated the system to establish its
	// desired state.
	Changed Outcome = iota
	// Unchanged means the desired state already held.
	Unchanged
	// Skipped means the step decided not to act (best-effort step whose
	// target is already present, or whose collaborator is unavailable).
	Skipped
)

func (o Outcome) String() string {
	return []string{"changed", "unchanged", "skipped"}[int(o)]
}

// FailurePolicy decides what a step failure does to the run.
type FailurePolicy int

const (
	// AbortRun stops the sequence at the failing step.
	AbortRun FailurePolicy = iota
	// WarnAndContinue logs the failure and proceeds with the next step.
	WarnAndContinue
)

// Step is one ordered unit of desired system state. Steps may not be
// reordered: each one documents the steps it depends on.
type Step interface {
	Name() string
	Policy() FailurePolicy
	Run(ctx context.Context) (Outcome, error)
}
