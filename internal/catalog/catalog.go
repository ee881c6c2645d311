// Package catalog defines the static component catalog: the version-pinned
// list of external tools rigup manages, how each is probed, and how each is
// installed. The catalog is loaded once at orchestrator construction and is
// immutable afterwards.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrCatalogMalformed is wrapped by every structural catalog error. A
// malformed catalog is fatal: the orchestrator cannot be constructed and the
// CLI exits with code 3.
var ErrCatalogMalformed = errors.New("malformed component catalog")

// Strategy identifies one way to install a component.
type Strategy string

const (
	// StrategyOffline installs from a bundled artifact on disk.
	StrategyOffline Strategy = "offline"

	// StrategyOnline installs by fetching from a registry over the network.
	StrategyOnline Strategy = "online"
)

// ProbeSpec describes how to ask a component for its version.
type ProbeSpec struct {
	// Command is the argv of the component's version-reporting entry point.
	Command []string `yaml:"command"`

	// TimeoutSeconds bounds the probe. Zero means the prober default.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

// InstallStep is one installation action for a component. Steps are attempted
// in catalog order, filtered and reordered by the strategy selector.
type InstallStep struct {
	// Strategy is offline or online.
	Strategy Strategy `yaml:"strategy"`

	// Command is the argv to run.
	Command []string `yaml:"command"`

	// Dir is the working directory for the command. Empty means inherited.
	Dir string `yaml:"dir,omitempty"`

	// Artifact is the path of the bundled package this step consumes.
	// Offline steps whose artifact is absent on disk are skipped.
	Artifact string `yaml:"artifact,omitempty"`

	// TimeoutSeconds bounds the step. Zero means the executor default
	// (install steps may legitimately take minutes).
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

// EnvVar is an environment mutation a component needs once installed.
type EnvVar struct {
	Name string `yaml:"name"`

	Value string `yaml:"value"`

	// Scope is "machine" or "user". Machine-scope writes degrade to user
	// scope when privileges are insufficient.
	Scope string `yaml:"scope,omitempty"`

	// Policy is "replace" or "append-if-absent" (PATH-like variables).
	Policy string `yaml:"policy,omitempty"`
}

// ComponentSpec is the immutable description of one managed component.
type ComponentSpec struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// Requires is the required-version predicate evaluated against the
	// probe's parsed output.
	Requires Requirement `yaml:"requires"`

	Probe ProbeSpec `yaml:"probe"`

	Install []InstallStep `yaml:"install"`

	// Uninstall is the optional argv used by "rigup uninstall".
	Uninstall []string `yaml:"uninstall,omitempty"`

	// DependsOn names a component that must reach Verified before this one
	// may start installing.
	DependsOn string `yaml:"depends_on,omitempty"`

	// Env lists environment mutations applied after this component verifies.
	Env []EnvVar `yaml:"env,omitempty"`
}

// LaunchSpec describes the downstream application rigup hands off to.
type LaunchSpec struct {
	Command []string `yaml:"command"`
	Dir     string   `yaml:"dir,omitempty"`
}

// Catalog is the full component catalog.
type Catalog struct {
	Version    int             `yaml:"version"`
	Launch     LaunchSpec      `yaml:"launch,omitempty"`
	Components []ComponentSpec `yaml:"components"`
}

//go:embed default.yaml
var defaultCatalog []byte

// Default returns the embedded catalog shipped with rigup.
func Default() (*Catalog, error) {
	return parse(defaultCatalog)
}

// Load reads and validates a catalog file. A missing or unreadable file is a
// catalog error: the caller cannot proceed without a catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCatalogMalformed, path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogMalformed, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get returns the component with the given id.
func (c *Catalog) Get(id string) (ComponentSpec, bool) {
	for _, spec := range c.Components {
		if spec.ID == id {
			return spec, true
		}
	}
	return ComponentSpec{}, false
}

// Validate checks structural invariants. All violations wrap
// ErrCatalogMalformed.
func (c *Catalog) Validate() error {
	if len(c.Components) == 0 {
		return fmt.Errorf("%w: no components defined", ErrCatalogMalformed)
	}

	seen := make(map[string]bool, len(c.Components))
	for _, spec := range c.Components {
		if spec.ID == "" {
			return fmt.Errorf("%w: component with empty id", ErrCatalogMalformed)
		}
		if seen[spec.ID] {
			return fmt.Errorf("%w: duplicate component id %q", ErrCatalogMalformed, spec.ID)
		}
		seen[spec.ID] = true

		if spec.Requires.IsZero() {
			return fmt.Errorf("%w: component %q has no version requirement", ErrCatalogMalformed, spec.ID)
		}
		if len(spec.Probe.Command) == 0 {
			return fmt.Errorf("%w: component %q has no probe command", ErrCatalogMalformed, spec.ID)
		}
		if len(spec.Install) == 0 {
			return fmt.Errorf("%w: component %q has no install steps", ErrCatalogMalformed, spec.ID)
		}
		for i, step := range spec.Install {
			if step.Strategy != StrategyOffline && step.Strategy != StrategyOnline {
				return fmt.Errorf("%w: component %q install step %d has unknown strategy %q",
					ErrCatalogMalformed, spec.ID, i, step.Strategy)
			}
			if len(step.Command) == 0 {
				return fmt.Errorf("%w: component %q install step %d has no command",
					ErrCatalogMalformed, spec.ID, i)
			}
			if step.Strategy == StrategyOffline && step.Artifact == "" {
				return fmt.Errorf("%w: component %q offline step %d names no artifact",
					ErrCatalogMalformed, spec.ID, i)
			}
		}
		for _, env := range spec.Env {
			if env.Name == "" {
				return fmt.Errorf("%w: component %q has env entry with empty name", ErrCatalogMalformed, spec.ID)
			}
			switch env.Scope {
			case "", "machine", "user":
			default:
				return fmt.Errorf("%w: component %q env %s has unknown scope %q",
					ErrCatalogMalformed, spec.ID, env.Name, env.Scope)
			}
			switch env.Policy {
			case "", "replace", "append-if-absent":
			default:
				return fmt.Errorf("%w: component %q env %s has unknown policy %q",
					ErrCatalogMalformed, spec.ID, env.Name, env.Policy)
			}
		}
	}

	for _, spec := range c.Components {
		if spec.DependsOn == "" {
			continue
		}
		if spec.DependsOn == spec.ID {
			return fmt.Errorf("%w: component %q depends on itself", ErrCatalogMalformed, spec.ID)
		}
		if !seen[spec.DependsOn] {
			return fmt.Errorf("%w: component %q depends on unknown component %q",
				ErrCatalogMalformed, spec.ID, spec.DependsOn)
		}
	}

	if _, err := c.TopoOrder(); err != nil {
		return err
	}
	return nil
}

// TopoOrder returns component ids in dependency order: every component
// appears after the component it depends on. Ties keep catalog order, so the
// result is deterministic. Cycles are a catalog error.
func (c *Catalog) TopoOrder() ([]string, error) {
	placed := make(map[string]bool, len(c.Components))
	var order []string

	// Single optional dependency per component keeps this simple: repeatedly
	// sweep the catalog placing components whose dependency is satisfied.
	for len(order) < len(c.Components) {
		progressed := false
		for _, spec := range c.Components {
			if placed[spec.ID] {
				continue
			}
			if spec.DependsOn == "" || placed[spec.DependsOn] {
				placed[spec.ID] = true
				order = append(order, spec.ID)
				progressed = true
			}
		}
		if !progressed {
			return nil, fmt.Errorf("%w: dependency cycle among components", ErrCatalogMalformed)
		}
	}
	return order, nil
}
