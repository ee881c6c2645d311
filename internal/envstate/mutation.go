// Package envstate durably mutates machine environment configuration (PATH
// additions, SDK root variables) on behalf of the orchestrator. All writes go
// through a single entry point and every applied mutation is audited.
package envstate

import (
	"errors"
	"fmt"
)

// Scope selects where a variable is persisted.
type Scope string

const (
	// ScopeMachine persists machine-wide.
	ScopeMachine Scope = "machine"

	// ScopeUser persists for the current user only.
	ScopeUser Scope = "user"
)

// Policy selects how a desired value combines with the existing one.
type Policy string

const (
	// PolicyReplace overwrites the variable.
	PolicyReplace Policy = "replace"

	// PolicyAppendIfAbsent appends to a PATH-like list variable only when the
	// entry is not already present. Applying the same mutation twice never
	// duplicates an entry.
	PolicyAppendIfAbsent Policy = "append-if-absent"
)

// ErrPrivilegeInsufficient is wrapped into apply errors when neither the
// requested scope nor the user-scope fallback could be written.
var ErrPrivilegeInsufficient = errors.New("insufficient privilege for environment write")

// ParseScope maps a catalog scope string to a Scope. Empty defaults to user
// scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeMachine, ScopeUser:
		return Scope(s), nil
	case "":
		return ScopeUser, nil
	default:
		return "", fmt.Errorf("unknown scope %q", s)
	}
}

// ParsePolicy maps a catalog policy string to a Policy. Empty defaults to
// replace.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyReplace, PolicyAppendIfAbsent:
		return Policy(s), nil
	case "":
		return PolicyReplace, nil
	default:
		return "", fmt.Errorf("unknown policy %q", s)
	}
}

// Mutation is one desired environment change.
type Mutation struct {
	// Component is the catalog id of the component requesting the change,
	// recorded in the audit log.
	Component string

	Name  string
	Scope Scope
	Value string

	Policy Policy
}

// Validate checks the mutation's enum fields.
func (m Mutation) Validate() error {
	if m.Name == "" {
		return errors.New("mutation with empty variable name")
	}
	switch m.Scope {
	case ScopeMachine, ScopeUser:
	default:
		return fmt.Errorf("unknown scope %q for %s", m.Scope, m.Name)
	}
	switch m.Policy {
	case PolicyReplace, PolicyAppendIfAbsent:
	default:
		return fmt.Errorf("unknown policy %q for %s", m.Policy, m.Name)
	}
	return nil
}

// ApplyResult reports what actually happened for one mutation.
type ApplyResult struct {
	Variable string

	// RequestedScope is the scope the mutation asked for.
	RequestedScope Scope

	// EffectiveScope is where the value was actually written.
	EffectiveScope Scope

	// Downgraded is true when a machine-scope write failed with insufficient
	// privilege and the value was persisted at user scope instead. A restart
	// or re-login may be required for full effect; this is always reported,
	// never hidden.
	Downgraded bool

	// Changed is false when the store already held the desired value (or the
	// PATH entry was already present) and no write occurred.
	Changed bool

	OldValue string
	NewValue string
}

// BroadcastResult reports the post-run environment-change broadcast. The
// broadcast is best-effort on every platform: sibling shells may or may not
// observe the change without a re-login.
type BroadcastResult struct {
	Attempted bool
	Err       error
}
