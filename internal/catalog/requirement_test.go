package catalog

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func mustVersion(t *testing.T, s string) *semver.Version {
	t.Helper()
	v, err := semver.NewVersion(s)
	require.NoError(t, err)
	return v
}

func TestParseRequirement(t *testing.T) {
	t.Run("exact with equals", func(t *testing.T) {
		r, err := ParseRequirement("=2.5.0")
		require.NoError(t, err)
		assert.True(t, r.Satisfied(mustVersion(t, "2.5.0")))
		assert.False(t, r.Satisfied(mustVersion(t, "2.5.1")))
		assert.False(t, r.Satisfied(mustVersion(t, "2.4.9")))
	})

	t.Run("exact shorthand", func(t *testing.T) {
		r, err := ParseRequirement("2.45.1")
		require.NoError(t, err)
		assert.True(t, r.Satisfied(mustVersion(t, "2.45.1")))
		assert.False(t, r.Satisfied(mustVersion(t, "2.45.0")))
	})

	t.Run("minimum", func(t *testing.T) {
		r, err := ParseRequirement(">=18.18")
		require.NoError(t, err)
		assert.True(t, r.Satisfied(mustVersion(t, "18.18.0")))
		assert.True(t, r.Satisfied(mustVersion(t, "18.18.2")))
		assert.True(t, r.Satisfied(mustVersion(t, "20.0.0")))
		assert.False(t, r.Satisfied(mustVersion(t, "16.20.2")))
	})

	t.Run("ordering is numeric not lexical", func(t *testing.T) {
		// Lexically "9.0.0" > "18.18.0"; numerically it is not.
		r, err := ParseRequirement(">=18.18")
		require.NoError(t, err)
		assert.False(t, r.Satisfied(mustVersion(t, "9.0.0")))
	})

	t.Run("nil version never satisfies", func(t *testing.T) {
		r, err := ParseRequirement(">=1.0")
		require.NoError(t, err)
		assert.False(t, r.Satisfied(nil))
	})

	t.Run("empty requirement rejected", func(t *testing.T) {
		_, err := ParseRequirement("")
		assert.Error(t, err)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := ParseRequirement(">=not-a-version")
		assert.Error(t, err)
	})

	t.Run("zero value", func(t *testing.T) {
		var r Requirement
		assert.True(t, r.IsZero())
		assert.False(t, r.Satisfied(mustVersion(t, "1.0.0")))
	})
}

func TestRequirementUnmarshalYAML(t *testing.T) {
	var spec struct {
		Requires Requirement `yaml:"requires"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`requires: ">=3.11"`), &spec))
	assert.Equal(t, ">=3.11", spec.Requires.String())
	assert.True(t, spec.Requires.Satisfied(mustVersion(t, "3.11.6")))

	err := yaml.Unmarshal([]byte(`requires: "bogus"`), &spec)
	assert.Error(t, err)
}
