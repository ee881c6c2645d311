package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rigup-dev/rigup/internal/orchestrator"
)

// newLaunchCmd creates the launch command: start the downstream application
// once every component is verified, then detach.
func newLaunchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Start the downstream application",
		Long: `Launch verifies that every catalog component is installed at its required
version, then starts the configured downstream application and detaches.
Run "rigup install" first if anything is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(flags)
			if err != nil {
				return err
			}

			orch := orchestrator.New(cat, orchestrator.Options{})
			if err := orch.Launch(cmd.Context()); err != nil {
				var notReady *orchestrator.ErrNotReady
				if errors.As(err, &notReady) {
					fmt.Fprintf(cmd.OutOrStdout(),
						"not ready: %v\nrun \"rigup install\" first\n", notReady.Missing)
				}
				return &ExitCodeError{Code: ExitPartialFailure, Err: err}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "application started")
			return nil
		},
	}
}
