// Package probe determines whether a component is installed and at what
// version by invoking its version-reporting entry point. Probes are pure
// reads: they never mutate the machine, and a non-zero exit or timeout is a
// normal classification input, not an error.
package probe

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/rigup-dev/rigup/internal/catalog"
	"github.com/rigup-dev/rigup/internal/logging"
)

const (
	// DefaultTimeout bounds a single probe invocation.
	DefaultTimeout = 10 * time.Second

	// maxOutput bounds captured probe output.
	maxOutput = 16 * 1024

	// waitDelay bounds how long a finished or killed probe may keep its
	// output pipes open; a forked child inheriting them must not stall the
	// probe past its timeout.
	waitDelay = 2 * time.Second
)

// Status classifies a component after probing.
type Status int

const (
	// StatusUnknown means the probe ran but its output did not parse into a
	// version. Treated conservatively as requiring reinstall.
	StatusUnknown Status = iota

	// StatusMissing means the probe command could not be located or started.
	StatusMissing

	// StatusVersionMismatch means a version was parsed but does not satisfy
	// the component's requirement.
	StatusVersionMismatch

	// StatusInstalled means the parsed version satisfies the requirement.
	StatusInstalled
)

// String returns the status name used in reports and logs.
func (s Status) String() string {
	switch s {
	case StatusMissing:
		return "missing"
	case StatusVersionMismatch:
		return "version-mismatch"
	case StatusInstalled:
		return "installed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one probe.
type Result struct {
	Status Status

	// Version is the parsed version, set only when output parsed.
	Version *semver.Version

	// Output is the captured combined output, bounded.
	Output string
}

// Prober runs version-probe commands.
type Prober struct {
	// Timeout overrides DefaultTimeout when non-zero; a per-component
	// probe timeout in the catalog takes precedence over both.
	Timeout time.Duration

	// Env holds extra KEY=VALUE entries appended to the inherited
	// environment, so probes observe mutations applied earlier in a run.
	Env []string
}

// Probe classifies spec per its version requirement. The error return is
// reserved for context cancellation; every subprocess misbehavior maps to a
// Status instead.
func (p *Prober) Probe(ctx context.Context, spec catalog.ComponentSpec) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	log := logging.FromContext(ctx)

	timeout := p.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if spec.Probe.TimeoutSeconds > 0 {
		timeout = time.Duration(spec.Probe.TimeoutSeconds) * time.Second
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := spec.Probe.Command
	if _, err := exec.LookPath(argv[0]); err != nil {
		log.Debug().
			Str("component", spec.ID).
			Str("operation", "probe").
			Str("binary", argv[0]).
			Msg("probe command not found")
		return Result{Status: StatusMissing}, nil
	}

	//nolint:gosec // Probe commands come from the validated, static catalog.
	cmd := exec.CommandContext(probeCtx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), p.Env...)
	cmd.WaitDelay = waitDelay

	out, runErr := cmd.CombinedOutput()
	if len(out) > maxOutput {
		out = out[:maxOutput]
	}
	output := string(out)

	if runErr != nil && len(out) == 0 {
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			log.Debug().
				Str("component", spec.ID).
				Str("operation", "probe").
				Dur("timeout", timeout).
				Msg("probe timed out")
			return Result{Status: StatusUnknown}, nil
		}
		// Started but produced nothing useful; cannot classify further.
		return Result{Status: StatusUnknown, Output: output}, nil
	}

	version, ok := ParseVersion(output)
	if !ok {
		log.Debug().
			Str("component", spec.ID).
			Str("operation", "probe").
			Msg("probe output did not parse into a version")
		return Result{Status: StatusUnknown, Output: output}, nil
	}

	if !spec.Requires.Satisfied(version) {
		log.Debug().
			Str("component", spec.ID).
			Str("operation", "probe").
			Str("found", version.String()).
			Str("required", spec.Requires.String()).
			Msg("version does not satisfy requirement")
		return Result{Status: StatusVersionMismatch, Version: version, Output: output}, nil
	}

	return Result{Status: StatusInstalled, Version: version, Output: output}, nil
}
