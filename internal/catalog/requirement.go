package catalog

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Requirement is a component's required-version predicate: either an exact
// pin ("=2.5.0", "2.5.0") or a minimum version (">=18.18"). Comparison is
// dotted-numeric via semver ordering, never lexical.
type Requirement struct {
	raw     string
	exact   *semver.Version
	minimum *semver.Version
}

// ParseRequirement parses a requirement string. Supported forms:
//
//	"=1.2.3"  exact match
//	"1.2.3"   exact match (shorthand)
//	">=1.2"   minimum version
//
// Partial versions ("3.11") are padded with zeros by the semver library, so
// ">=3.11" admits 3.11.0 and later.
func ParseRequirement(s string) (Requirement, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Requirement{}, fmt.Errorf("empty version requirement")
	}

	switch {
	case strings.HasPrefix(trimmed, ">="):
		v, err := semver.NewVersion(strings.TrimSpace(trimmed[2:]))
		if err != nil {
			return Requirement{}, fmt.Errorf("parsing minimum version %q: %w", trimmed, err)
		}
		return Requirement{raw: trimmed, minimum: v}, nil
	case strings.HasPrefix(trimmed, "="):
		v, err := semver.NewVersion(strings.TrimSpace(trimmed[1:]))
		if err != nil {
			return Requirement{}, fmt.Errorf("parsing exact version %q: %w", trimmed, err)
		}
		return Requirement{raw: trimmed, exact: v}, nil
	default:
		v, err := semver.NewVersion(trimmed)
		if err != nil {
			return Requirement{}, fmt.Errorf("parsing version %q: %w", trimmed, err)
		}
		return Requirement{raw: trimmed, exact: v}, nil
	}
}

// Satisfied reports whether v meets the requirement.
func (r Requirement) Satisfied(v *semver.Version) bool {
	if v == nil {
		return false
	}
	if r.exact != nil {
		return v.Equal(r.exact)
	}
	if r.minimum != nil {
		return !v.LessThan(r.minimum)
	}
	return false
}

// IsZero reports whether the requirement is unset.
func (r Requirement) IsZero() bool {
	return r.exact == nil && r.minimum == nil
}

// String returns the original requirement text.
func (r Requirement) String() string {
	return r.raw
}

// UnmarshalYAML parses a requirement directly from a YAML scalar.
func (r *Requirement) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseRequirement(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
