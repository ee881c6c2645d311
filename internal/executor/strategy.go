package executor

import (
	"os"

	"github.com/rigup-dev/rigup/internal/catalog"
)

// SkippedStep records an install step that was filtered out before execution,
// with the reason, so reports can show why a fallback chain was shorter than
// the catalog declares.
type SkippedStep struct {
	Step   catalog.InstallStep
	Reason string
}

// Selection is the ordered attempt plan for one component.
type Selection struct {
	Steps   []catalog.InstallStep
	Skipped []SkippedStep
}

// StatFunc reports whether a path exists. Tests substitute it; production
// uses os.Stat.
type StatFunc func(path string) bool

func defaultStat(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SelectSteps builds the attempt plan for spec. Steps keep catalog order, so
// a catalog that lists offline before online expresses the offline-first
// policy directly. Offline steps whose artifact is absent on disk are skipped
// up front rather than attempted and failed; the same inputs always produce
// the same plan.
func SelectSteps(spec catalog.ComponentSpec, stat StatFunc) Selection {
	if stat == nil {
		stat = defaultStat
	}

	var sel Selection
	for _, step := range spec.Install {
		if step.Strategy == catalog.StrategyOffline && !stat(step.Artifact) {
			sel.Skipped = append(sel.Skipped, SkippedStep{
				Step:   step,
				Reason: "artifact not found: " + step.Artifact,
			})
			continue
		}
		sel.Steps = append(sel.Steps, step)
	}
	return sel
}
