// Package cli wires the rigup commands: status, install, env, catalog,
// uninstall and launch. All commands share the persistent logging and audit
// setup configured on the root command.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	debug    bool
	logJSON  bool
	catalog  string
	auditLog string
}

// NewRootCmd creates the root Cobra command for the rigup CLI. It wires up
// logging, run tracing, audit logging and the subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var flags rootFlags
	var logResult *loggingResult

	cmd := &cobra.Command{
		Use:     "rigup",
		Short:   "Environment bootstrapper for the test rig toolchain",
		Long:    "rigup probes, installs and verifies the external tools a workstation needs, then configures the environment to use them.",
		Version: ver,
		Example: rootCmdExample,
		// Errors carry exit codes; main prints them once.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			result := setupLogging(cmd, flags)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&flags.logJSON, "log-json", false, "emit logs as JSON instead of console format")
	cmd.PersistentFlags().StringVar(&flags.catalog, "catalog", "", "path to a component catalog file (default: embedded catalog)")
	cmd.PersistentFlags().StringVar(&flags.auditLog, "audit-log", "", "append environment-mutation audit records to this file")

	cmd.AddCommand(
		newStatusCmd(&flags),
		newInstallCmd(&flags),
		newEnvCmd(&flags),
		newCatalogCmd(&flags),
		newUninstallCmd(&flags),
		newLaunchCmd(&flags),
	)

	return cmd
}

const rootCmdExample = `  # Show what is installed and at which versions
  rigup status

  # Install or repair everything in the catalog
  rigup install

  # Install one component (and whatever it depends on)
  rigup install appium

  # Re-apply durable environment configuration
  rigup env apply

  # Validate a custom catalog before using it
  rigup catalog validate --catalog ./catalog.yaml

  # Remove managed components
  rigup uninstall

  # Start the downstream application once everything is ready
  rigup launch`
