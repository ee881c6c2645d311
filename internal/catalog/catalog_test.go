package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalCatalog = `
version: 1
components:
  - id: alpha
    name: Alpha
    requires: ">=1.0"
    probe:
      command: ["alpha", "--version"]
    install:
      - strategy: online
        command: ["install-alpha"]
`

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, cat.Components)

	// The embedded catalog must already satisfy its own validation, including
	// dependency ordering.
	order, err := cat.TopoOrder()
	require.NoError(t, err)
	assert.Len(t, order, len(cat.Components))

	// Spot-check the dependency chain the catalog declares.
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, spec := range cat.Components {
		if spec.DependsOn != "" {
			assert.Less(t, pos[spec.DependsOn], pos[spec.ID],
				"%s must come after %s", spec.ID, spec.DependsOn)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte(minimalCatalog), 0o600))

		cat, err := Load(path)
		require.NoError(t, err)
		assert.Len(t, cat.Components, 1)

		spec, ok := cat.Get("alpha")
		require.True(t, ok)
		assert.Equal(t, "Alpha", spec.Name)
	})

	t.Run("missing file is a catalog error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, ErrCatalogMalformed)
	})

	t.Run("invalid yaml is a catalog error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("components: [unclosed"), 0o600))
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrCatalogMalformed)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Catalog {
		req, err := ParseRequirement(">=1.0")
		require.NoError(t, err)
		return &Catalog{Components: []ComponentSpec{
			{
				ID:       "alpha",
				Requires: req,
				Probe:    ProbeSpec{Command: []string{"alpha", "--version"}},
				Install:  []InstallStep{{Strategy: StrategyOnline, Command: []string{"install-alpha"}}},
			},
			{
				ID:        "beta",
				Requires:  req,
				Probe:     ProbeSpec{Command: []string{"beta", "--version"}},
				Install:   []InstallStep{{Strategy: StrategyOnline, Command: []string{"install-beta"}}},
				DependsOn: "alpha",
			},
		}}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("empty catalog", func(t *testing.T) {
		c := &Catalog{}
		assert.ErrorIs(t, c.Validate(), ErrCatalogMalformed)
	})

	t.Run("duplicate id", func(t *testing.T) {
		c := base()
		c.Components[1].ID = "alpha"
		c.Components[1].DependsOn = ""
		assert.ErrorIs(t, c.Validate(), ErrCatalogMalformed)
	})

	t.Run("missing requirement", func(t *testing.T) {
		c := base()
		c.Components[0].Requires = Requirement{}
		assert.ErrorIs(t, c.Validate(), ErrCatalogMalformed)
	})

	t.Run("missing probe", func(t *testing.T) {
		c := base()
		c.Components[0].Probe.Command = nil
		assert.ErrorIs(t, c.Validate(), ErrCatalogMalformed)
	})

	t.Run("no install steps", func(t *testing.T) {
		c := base()
		c.Components[0].Install = nil
		assert.ErrorIs(t, c.Validate(), ErrCatalogMalformed)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		c := base()
		c.Components[0].Install[0].Strategy = "sideload"
		assert.ErrorIs(t, c.Validate(), ErrCatalogMalformed)
	})

	t.Run("offline step without artifact", func(t *testing.T) {
		c := base()
		c.Components[0].Install[0].Strategy = StrategyOffline
		assert.ErrorIs(t, c.Validate(), ErrCatalogMalformed)
	})

	t.Run("dangling dependency", func(t *testing.T) {
		c := base()
		c.Components[1].DependsOn = "gamma"
		assert.ErrorIs(t, c.Validate(), ErrCatalogMalformed)
	})

	t.Run("self dependency", func(t *testing.T) {
		c := base()
		c.Components[0].DependsOn = "alpha"
		assert.ErrorIs(t, c.Validate(), ErrCatalogMalformed)
	})

	t.Run("dependency cycle", func(t *testing.T) {
		c := base()
		c.Components[0].DependsOn = "beta"
		assert.ErrorIs(t, c.Validate(), ErrCatalogMalformed)
	})

	t.Run("unknown env scope", func(t *testing.T) {
		c := base()
		c.Components[0].Env = []EnvVar{{Name: "FOO", Value: "x", Scope: "global"}}
		assert.ErrorIs(t, c.Validate(), ErrCatalogMalformed)
	})

	t.Run("unknown env policy", func(t *testing.T) {
		c := base()
		c.Components[0].Env = []EnvVar{{Name: "FOO", Value: "x", Policy: "prepend"}}
		assert.ErrorIs(t, c.Validate(), ErrCatalogMalformed)
	})
}

func TestTopoOrder(t *testing.T) {
	req, err := ParseRequirement(">=1.0")
	require.NoError(t, err)

	mk := func(id, dep string) ComponentSpec {
		return ComponentSpec{
			ID:        id,
			Requires:  req,
			Probe:     ProbeSpec{Command: []string{id}},
			Install:   []InstallStep{{Strategy: StrategyOnline, Command: []string{"x"}}},
			DependsOn: dep,
		}
	}

	// Declared out of dependency order on purpose.
	c := &Catalog{Components: []ComponentSpec{
		mk("driver", "server"),
		mk("server", "runtime"),
		mk("runtime", ""),
		mk("standalone", ""),
	}}

	order, err := c.TopoOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"runtime", "standalone", "server", "driver"}, order)

	// Same input, same order.
	again, err := c.TopoOrder()
	require.NoError(t, err)
	assert.Equal(t, order, again)
}
