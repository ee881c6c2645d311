package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rigup-dev/rigup/internal/logging"
	"github.com/rigup-dev/rigup/internal/probe"
)

// uninstallTimeout bounds a single uninstall command.
const uninstallTimeout = 5 * time.Minute

// UninstallResult records one component's uninstall outcome.
type UninstallResult struct {
	ID     string
	Ran    bool
	Output string
	Err    error
}

// Uninstall runs the optional uninstall command of each targeted component,
// in reverse dependency order so dependents go before their dependencies.
// Best-effort throughout: a failing uninstall is recorded and the sweep
// continues.
func (o *Orchestrator) Uninstall(ctx context.Context, requested []string) ([]UninstallResult, error) {
	log := logging.FromContext(ctx)

	targets, err := o.resolveTargets(requested)
	if err != nil {
		return nil, err
	}

	var results []UninstallResult
	for i := len(targets) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		spec, _ := o.catalog.Get(targets[i])
		res := UninstallResult{ID: spec.ID}
		if len(spec.Uninstall) == 0 {
			results = append(results, res)
			continue
		}

		res.Ran = true
		res.Output, res.Err = o.exec.RunCommand(ctx, spec.Uninstall, "", uninstallTimeout)
		if res.Err != nil {
			log.Warn().
				Str("component", spec.ID).
				Str("operation", "uninstall").
				Err(res.Err).
				Msg("uninstall command failed")
		} else {
			log.Info().
				Str("component", spec.ID).
				Str("operation", "uninstall").
				Msg("component uninstalled")
		}
		results = append(results, res)
	}
	return results, nil
}

// ErrNotReady is returned by Launch when some component does not probe as
// installed.
type ErrNotReady struct {
	Missing []string
}

func (e *ErrNotReady) Error() string {
	return fmt.Sprintf("components not ready: %v", e.Missing)
}

// Launch starts the configured downstream application and detaches. It
// refuses to launch while any catalog component is not installed at its
// required version.
func (o *Orchestrator) Launch(ctx context.Context) error {
	log := logging.FromContext(ctx)

	if len(o.catalog.Launch.Command) == 0 {
		return fmt.Errorf("no launch command configured")
	}

	results, err := o.ProbeAll(ctx)
	if err != nil {
		return err
	}
	var missing []string
	for _, spec := range o.catalog.Components {
		if results[spec.ID].Status != probe.StatusInstalled {
			missing = append(missing, spec.ID)
		}
	}
	if len(missing) > 0 {
		return &ErrNotReady{Missing: missing}
	}

	o.refreshEnv()
	argv := o.catalog.Launch.Command
	//nolint:gosec // The launch command comes from the validated, static catalog.
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = o.catalog.Launch.Dir
	cmd.Env = append(os.Environ(), o.env.ProcessEnv()...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", argv[0], err)
	}

	log.Info().
		Str("operation", "launch").
		Str("command", argv[0]).
		Int("pid", cmd.Process.Pid).
		Msg("downstream application started")

	// Detach: the child outlives this process.
	return cmd.Process.Release()
}
