package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rigup-dev/rigup/internal/orchestrator"
)

// newInstallCmd creates the install command: the full probe, install, verify,
// configure cycle over the catalog (or a subset of it).
func newInstallCmd(flags *rootFlags) *cobra.Command {
	var probeTimeout, stepTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "install [component...]",
		Short: "Install or repair components from the catalog",
		Long: `Install probes each component, installs the ones that are missing or at the
wrong version, verifies the result, and durably configures the environment.
With no arguments every catalog component is processed; with arguments only
the named components and their dependencies are.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(flags)
			if err != nil {
				return err
			}

			// Ctrl-C cancels the run: the in-flight subprocess is killed and
			// later components are not started.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orch := orchestrator.New(cat, orchestrator.Options{
				ProbeTimeout: probeTimeout,
				StepTimeout:  stepTimeout,
			})

			report, err := orch.Run(ctx, orchestrator.RunOptions{
				Components: args,
				OnProgress: progressPrinter(cmd),
			})
			if err != nil {
				return err
			}

			renderReport(cmd, report)
			switch report.Outcome {
			case orchestrator.AllSucceeded:
				return nil
			case orchestrator.Aborted:
				return &ExitCodeError{Code: ExitAborted, Err: fmt.Errorf("run aborted")}
			default:
				return &ExitCodeError{
					Code: ExitPartialFailure,
					Err:  fmt.Errorf("components failed: %v", report.FailedIDs()),
				}
			}
		},
	}

	cmd.Flags().DurationVar(&probeTimeout, "probe-timeout", 0, "per-probe timeout (default 10s)")
	cmd.Flags().DurationVar(&stepTimeout, "step-timeout", 0, "per-install-step timeout (default 10m)")
	return cmd
}

// progressPrinter streams state transitions to the terminal as they happen.
func progressPrinter(cmd *cobra.Command) func(orchestrator.Event) {
	return func(ev orchestrator.Event) {
		switch ev.State {
		case orchestrator.StateProbing:
			fmt.Fprintf(cmd.OutOrStdout(), "%s: probing...\n", ev.ComponentID)
		case orchestrator.StateSatisfied:
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ev.ComponentID, statusOKStyle.Render(ev.Message))
		case orchestrator.StateInstalling:
			fmt.Fprintf(cmd.OutOrStdout(), "%s: installing...\n", ev.ComponentID)
		case orchestrator.StateVerified:
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ev.ComponentID, statusOKStyle.Render("installed "+ev.Message))
		case orchestrator.StateExhausted:
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ev.ComponentID, statusBadStyle.Render(ev.Message))
		case orchestrator.StateBlocked:
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ev.ComponentID, statusWarnStyle.Render("skipped: "+ev.Message))
		case orchestrator.StateCancelled:
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ev.ComponentID, statusWarnStyle.Render("cancelled"))
		}
	}
}

// renderReport prints the end-of-run summary.
func renderReport(cmd *cobra.Command, report *orchestrator.Report) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "\nRun %s: %s (%s)\n",
		report.RunID, report.Outcome, report.Finished.Sub(report.Started).Round(time.Millisecond))

	for _, res := range report.Results {
		line := fmt.Sprintf("  %-24s %s", res.ID, res.State)
		if res.Version != nil {
			line += " " + res.Version.String()
		}
		if res.Reason != orchestrator.ReasonNone {
			line += " (" + res.Reason.String() + ")"
		}
		fmt.Fprintln(out, line)

		for _, attempt := range res.Attempts {
			fmt.Fprintf(out, "    attempt %-8s %s", attempt.Strategy, attempt.Failure)
			if attempt.ExitCode != 0 {
				fmt.Fprintf(out, " (exit %d)", attempt.ExitCode)
			}
			fmt.Fprintln(out)
		}
	}

	for _, change := range report.EnvChanges {
		if !change.Changed && !change.Downgraded {
			continue
		}
		note := ""
		if change.Downgraded {
			note = statusWarnStyle.Render("  (machine scope unavailable, wrote user scope; re-login may be required)")
		}
		fmt.Fprintf(out, "  env %s [%s]%s\n", change.Variable, change.EffectiveScope, note)
	}
	if report.Broadcast.Attempted && report.Broadcast.Err == nil {
		fmt.Fprintln(out, "  environment change broadcast sent")
	}
}
