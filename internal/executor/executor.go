// Package executor runs install steps as subprocesses and verifies the result
// by re-probing. Every subprocess misbehavior is classified into a failure
// kind rather than surfaced as an error; errors are reserved for context
// cancellation.
package executor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/rigup-dev/rigup/internal/catalog"
	"github.com/rigup-dev/rigup/internal/logging"
	"github.com/rigup-dev/rigup/internal/probe"
)

const (
	// DefaultStepTimeout bounds a single install step. Installs legitimately
	// take minutes; the catalog can tighten or widen this per step.
	DefaultStepTimeout = 10 * time.Minute

	// maxOutput bounds captured step output kept for the report.
	maxOutput = 64 * 1024

	// waitDelay bounds how long a finished or killed step may keep its output
	// pipes open. Installers that fork background children (npm, msiexec)
	// inherit the pipes; without this, CombinedOutput blocks until the last
	// descendant exits, defeating the step timeout.
	waitDelay = 5 * time.Second
)

// FailureKind classifies why an install attempt did not end in a verified
// component.
type FailureKind int

const (
	// FailureNone marks a successful, verified attempt.
	FailureNone FailureKind = iota

	// FailureStart means the step command could not be located or spawned.
	FailureStart

	// FailureExit means the step ran and exited non-zero.
	FailureExit

	// FailureTimeout means the step exceeded its timeout and was killed.
	FailureTimeout

	// FailureVerify means the step exited zero but the post-install probe
	// still does not satisfy the requirement.
	FailureVerify
)

// String returns the failure name used in reports and logs.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureStart:
		return "start-failed"
	case FailureExit:
		return "exit-nonzero"
	case FailureTimeout:
		return "timeout"
	case FailureVerify:
		return "verify-failed"
	default:
		return "unknown"
	}
}

// Attempt is the record of one executed install step.
type Attempt struct {
	Strategy catalog.Strategy
	Command  []string
	Failure  FailureKind
	ExitCode int
	Output   string
	Started  time.Time
	Duration time.Duration
}

// Outcome is the result of driving one component through its attempt plan.
type Outcome struct {
	// Verified is true when some attempt left the component satisfying its
	// requirement.
	Verified bool

	// Version is the verified version, set only when Verified.
	Version *semver.Version

	// Attempts lists executed steps in order. Empty with Verified false means
	// the plan had no runnable steps.
	Attempts []Attempt

	// Skipped lists steps filtered out before execution.
	Skipped []SkippedStep
}

// Executor runs install plans.
type Executor struct {
	// Prober verifies components after each step.
	Prober *probe.Prober

	// Stat overrides artifact existence checks in tests.
	Stat StatFunc

	// StepTimeout overrides DefaultStepTimeout when non-zero; per-step catalog
	// timeouts take precedence over both.
	StepTimeout time.Duration

	// Env holds extra KEY=VALUE entries appended to the inherited environment
	// of every step, so installs observe mutations applied earlier in the run.
	Env []string
}

// Install drives spec through its attempt plan: run a step, re-probe, stop at
// the first verified attempt. A step failure is not fatal; the next step in
// the plan is tried. The error return is reserved for context cancellation.
func (e *Executor) Install(ctx context.Context, spec catalog.ComponentSpec) (Outcome, error) {
	log := logging.FromContext(ctx)

	sel := SelectSteps(spec, e.Stat)
	outcome := Outcome{Skipped: sel.Skipped}

	for _, skipped := range sel.Skipped {
		log.Debug().
			Str("component", spec.ID).
			Str("operation", "install").
			Str("strategy", string(skipped.Step.Strategy)).
			Str("reason", skipped.Reason).
			Msg("install step skipped")
	}

	for _, step := range sel.Steps {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		attempt := e.runStep(ctx, spec.ID, step)
		if err := ctx.Err(); err != nil {
			// The step died with the run; do not record it as a component
			// failure.
			return outcome, err
		}

		if attempt.Failure == FailureNone {
			result, err := e.Prober.Probe(ctx, spec)
			if err != nil {
				return outcome, err
			}
			if result.Status == probe.StatusInstalled {
				outcome.Attempts = append(outcome.Attempts, attempt)
				outcome.Verified = true
				outcome.Version = result.Version
				log.Info().
					Str("component", spec.ID).
					Str("operation", "install").
					Str("strategy", string(step.Strategy)).
					Str("version", result.Version.String()).
					Msg("component installed and verified")
				return outcome, nil
			}
			attempt.Failure = FailureVerify
			log.Warn().
				Str("component", spec.ID).
				Str("operation", "install").
				Str("strategy", string(step.Strategy)).
				Str("probe_status", result.Status.String()).
				Msg("install step succeeded but verification probe did not")
		} else {
			log.Warn().
				Str("component", spec.ID).
				Str("operation", "install").
				Str("strategy", string(step.Strategy)).
				Str("failure", attempt.Failure.String()).
				Int("exit_code", attempt.ExitCode).
				Msg("install step failed")
		}
		outcome.Attempts = append(outcome.Attempts, attempt)
	}

	return outcome, nil
}

// runStep executes one install step with its timeout and bounded output.
func (e *Executor) runStep(ctx context.Context, componentID string, step catalog.InstallStep) Attempt {
	attempt := Attempt{
		Strategy: step.Strategy,
		Command:  step.Command,
	}

	timeout := e.StepTimeout
	if timeout == 0 {
		timeout = DefaultStepTimeout
	}
	if step.TimeoutSeconds > 0 {
		timeout = time.Duration(step.TimeoutSeconds) * time.Second
	}

	attempt.Started = time.Now()
	argv := step.Command
	if _, err := exec.LookPath(argv[0]); err != nil {
		attempt.Failure = FailureStart
		attempt.Output = err.Error()
		return attempt
	}

	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // Install commands come from the validated, static catalog.
	cmd := exec.CommandContext(stepCtx, argv[0], argv[1:]...)
	cmd.Dir = step.Dir
	cmd.Env = append(os.Environ(), e.Env...)
	cmd.WaitDelay = waitDelay

	out, runErr := cmd.CombinedOutput()
	attempt.Duration = time.Since(attempt.Started)

	if len(out) > maxOutput {
		out = out[:maxOutput]
	}
	attempt.Output = string(out)

	// ErrWaitDelay means the step itself exited zero but a background child
	// kept the pipes open past the grace period; the output is merely
	// truncated, the verify probe decides whether the install worked.
	if runErr == nil || errors.Is(runErr, exec.ErrWaitDelay) {
		attempt.Failure = FailureNone
		return attempt
	}

	if errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		attempt.Failure = FailureTimeout
		return attempt
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		attempt.Failure = FailureExit
		attempt.ExitCode = exitErr.ExitCode()
		return attempt
	}

	attempt.Failure = FailureStart
	if attempt.Output == "" {
		attempt.Output = runErr.Error()
	}
	return attempt
}

// RunCommand executes an arbitrary argv with the executor's environment and a
// timeout, returning its bounded combined output. Used for uninstall commands
// and the downstream launch, which share the step machinery but not the
// verify loop.
func (e *Executor) RunCommand(ctx context.Context, argv []string, dir string, timeout time.Duration) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("empty command")
	}
	if timeout == 0 {
		timeout = DefaultStepTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // Commands come from the validated, static catalog.
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), e.Env...)
	cmd.WaitDelay = waitDelay

	out, err := cmd.CombinedOutput()
	if errors.Is(err, exec.ErrWaitDelay) {
		// The command exited zero; a lingering child held the pipes open.
		err = nil
	}
	if len(out) > maxOutput {
		out = out[:maxOutput]
	}
	return string(out), err
}
