package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rigup-dev/rigup/internal/envstate"
	"github.com/rigup-dev/rigup/internal/logging"
	"github.com/rigup-dev/rigup/internal/orchestrator"
)

// newEnvCmd creates the env command group: inspect and re-apply the durable
// environment configuration the catalog declares.
func newEnvCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "env", Short: "Inspect or re-apply durable environment configuration"}
	cmd.AddCommand(newEnvCheckCmd(flags), newEnvApplyCmd(flags))
	return cmd
}

// newEnvCheckCmd reports, without writing, whether each declared variable is
// already in its desired state.
func newEnvCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Show which declared environment variables are already configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(flags)
			if err != nil {
				return err
			}

			store := envstate.NewDefaultStore()
			out := cmd.OutOrStdout()
			for _, spec := range cat.Components {
				muts, err := orchestrator.MutationsFor(spec)
				if err != nil {
					return err
				}
				for _, m := range muts {
					current, _, err := store.Get(m.Scope, m.Name)
					if err != nil {
						fmt.Fprintf(out, "%-20s [%s] %s\n", m.Name, m.Scope, statusBadStyle.Render("unreadable: "+err.Error()))
						continue
					}
					ok := current == m.Value
					if m.Policy == envstate.PolicyAppendIfAbsent {
						ok = envstate.ContainsEntry(current, m.Value)
					}
					if ok {
						fmt.Fprintf(out, "%-20s [%s] %s\n", m.Name, m.Scope, statusOKStyle.Render("configured"))
					} else {
						fmt.Fprintf(out, "%-20s [%s] %s\n", m.Name, m.Scope, statusWarnStyle.Render("not configured"))
					}
				}
			}
			return nil
		},
	}
}

// newEnvApplyCmd re-applies every declared mutation. Idempotent: already
// configured variables are untouched.
func newEnvApplyCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply the catalog's environment configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(flags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			config := envstate.NewConfigurator(envstate.NewDefaultStore(), logging.GetOrGenerateTraceID(ctx))
			out := cmd.OutOrStdout()

			for _, spec := range cat.Components {
				muts, err := orchestrator.MutationsFor(spec)
				if err != nil {
					return err
				}
				for _, m := range muts {
					res, err := config.Apply(ctx, m)
					if err != nil {
						return &ExitCodeError{Code: ExitPartialFailure, Err: err}
					}
					switch {
					case !res.Changed:
						fmt.Fprintf(out, "%-20s unchanged\n", res.Variable)
					case res.Downgraded:
						fmt.Fprintf(out, "%-20s written [%s] %s\n", res.Variable, res.EffectiveScope,
							statusWarnStyle.Render("(machine scope unavailable)"))
					default:
						fmt.Fprintf(out, "%-20s written [%s]\n", res.Variable, res.EffectiveScope)
					}
				}
			}

			if br := config.Broadcast(ctx); br.Attempted && br.Err == nil {
				fmt.Fprintln(out, "environment change broadcast sent")
			}
			return nil
		},
	}
}
