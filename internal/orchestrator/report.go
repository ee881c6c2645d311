package orchestrator

import (
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/rigup-dev/rigup/internal/envstate"
	"github.com/rigup-dev/rigup/internal/executor"
	"github.com/rigup-dev/rigup/internal/probe"
)

// Outcome summarizes a whole run.
type Outcome int

const (
	// AllSucceeded means every targeted component ended Satisfied or Verified.
	AllSucceeded Outcome = iota

	// PartialFailure means at least one targeted component failed or was
	// blocked, and the run itself completed.
	PartialFailure

	// Aborted means the run was cancelled before completing.
	Aborted
)

// String returns the outcome name used in reports and logs.
func (o Outcome) String() string {
	switch o {
	case AllSucceeded:
		return "all-succeeded"
	case PartialFailure:
		return "partial-failure"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ComponentResult is the terminal record for one component in a run.
type ComponentResult struct {
	ID    string
	Name  string
	State State

	// Reason is set for non-successful terminal states.
	Reason Reason

	// ProbeStatus is the classification of the initial probe.
	ProbeStatus probe.Status

	// Version is the satisfied or verified version, when known.
	Version *semver.Version

	// Attempts lists the executed install steps, in order. Empty for
	// Satisfied, Blocked and Cancelled components.
	Attempts []executor.Attempt

	// Skipped lists install steps filtered out before execution.
	Skipped []executor.SkippedStep

	Duration time.Duration
}

// Report is the complete account of one run. It is always populated, even
// when the run aborts: per-component failures live here, not in Run's error
// return.
type Report struct {
	// RunID is the ULID identifying this run across logs and audit records.
	RunID string

	Started  time.Time
	Finished time.Time

	Outcome Outcome

	// Results holds one entry per targeted component, in execution order.
	Results []ComponentResult

	// EnvChanges lists the environment mutations applied during the run.
	EnvChanges []envstate.ApplyResult

	// Broadcast records the single post-run environment-change broadcast.
	Broadcast envstate.BroadcastResult
}

// FailedIDs returns the ids of components that ended in a non-successful
// terminal state.
func (r *Report) FailedIDs() []string {
	var ids []string
	for _, res := range r.Results {
		if !res.State.Succeeded() {
			ids = append(ids, res.ID)
		}
	}
	return ids
}

// computeOutcome derives the run outcome from per-component results.
func (r *Report) computeOutcome(cancelled bool) {
	if cancelled {
		r.Outcome = Aborted
		return
	}
	for _, res := range r.Results {
		if !res.State.Succeeded() {
			r.Outcome = PartialFailure
			return
		}
	}
	r.Outcome = AllSucceeded
}
