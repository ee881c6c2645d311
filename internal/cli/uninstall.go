package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rigup-dev/rigup/internal/orchestrator"
)

// newUninstallCmd creates the uninstall command: run each component's
// uninstall command in reverse dependency order, best-effort.
func newUninstallCmd(flags *rootFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "uninstall [component...]",
		Short: "Remove managed components",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(flags)
			if err != nil {
				return err
			}

			if !yes && !ConfirmRemoval(cmd.OutOrStdout(), cmd.InOrStdin(), args) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orch := orchestrator.New(cat, orchestrator.Options{})
			results, err := orch.Uninstall(ctx, args)
			if err != nil {
				return &ExitCodeError{Code: ExitAborted, Err: err}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, res := range results {
				switch {
				case !res.Ran:
					fmt.Fprintf(out, "%-24s no uninstall command, skipped\n", res.ID)
				case res.Err != nil:
					failed++
					fmt.Fprintf(out, "%-24s %s\n", res.ID, statusBadStyle.Render("failed: "+res.Err.Error()))
				default:
					fmt.Fprintf(out, "%-24s %s\n", res.ID, statusOKStyle.Render("removed"))
				}
			}
			if failed > 0 {
				return &ExitCodeError{
					Code: ExitPartialFailure,
					Err:  fmt.Errorf("%d uninstall commands failed", failed),
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not prompt for confirmation")
	return cmd
}
