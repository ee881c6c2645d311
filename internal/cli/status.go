package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rigup-dev/rigup/internal/catalog"
	"github.com/rigup-dev/rigup/internal/orchestrator"
	"github.com/rigup-dev/rigup/internal/probe"
)

var (
	statusHeaderStyle = lipgloss.NewStyle().Bold(true)
	statusOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusBadStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// newStatusCmd creates the status command: probe everything, mutate nothing.
func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe all components and show what is installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(flags)
			if err != nil {
				return err
			}

			orch := orchestrator.New(cat, orchestrator.Options{})
			results, err := orch.ProbeAll(cmd.Context())
			if err != nil {
				return &ExitCodeError{Code: ExitAborted, Err: err}
			}

			renderStatus(cmd, cat, results)
			return nil
		},
	}
}

func renderStatus(cmd *cobra.Command, cat *catalog.Catalog, results map[string]probe.Result) {
	out := cmd.OutOrStdout()

	idWidth, nameWidth := len("COMPONENT"), len("NAME")
	for _, spec := range cat.Components {
		if len(spec.ID) > idWidth {
			idWidth = len(spec.ID)
		}
		if len(spec.Name) > nameWidth {
			nameWidth = len(spec.Name)
		}
	}

	fmt.Fprintf(out, "%s  %s  %s  %s\n",
		statusHeaderStyle.Render(pad("COMPONENT", idWidth)),
		statusHeaderStyle.Render(pad("NAME", nameWidth)),
		statusHeaderStyle.Render(pad("STATUS", 16)),
		statusHeaderStyle.Render("VERSION"),
	)

	for _, spec := range cat.Components {
		res := results[spec.ID]
		version := "-"
		if res.Version != nil {
			version = res.Version.String()
		}
		fmt.Fprintf(out, "%s  %s  %s  %s\n",
			pad(spec.ID, idWidth),
			pad(spec.Name, nameWidth),
			statusStyleFor(res.Status).Render(pad(res.Status.String(), 16)),
			version,
		)
	}
}

func statusStyleFor(s probe.Status) lipgloss.Style {
	switch s {
	case probe.StatusInstalled:
		return statusOKStyle
	case probe.StatusMissing:
		return statusBadStyle
	default:
		return statusWarnStyle
	}
}

func pad(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}
