package envstate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rigup-dev/rigup/internal/logging"
)

// Configurator applies environment mutations at the requested scope, with
// user-scope fallback when machine writes are denied, and keeps a process
// overlay so subprocesses spawned later in the same run observe the changes
// immediately.
type Configurator struct {
	store Store
	runID string

	mu      sync.Mutex
	overlay map[string]string
	applied []ApplyResult
}

// NewConfigurator creates a Configurator over store. runID tags every audit
// record produced by this run.
func NewConfigurator(store Store, runID string) *Configurator {
	return &Configurator{
		store:   store,
		runID:   runID,
		overlay: make(map[string]string),
	}
}

// Apply persists one mutation. Machine-scope permission failures degrade to
// user scope; the downgrade is recorded on the result and in the audit log,
// never hidden. Applying the same mutation again is a no-op.
func (c *Configurator) Apply(ctx context.Context, m Mutation) (ApplyResult, error) {
	log := logging.FromContext(ctx)

	if err := m.Validate(); err != nil {
		return ApplyResult{}, err
	}

	result := ApplyResult{
		Variable:       m.Name,
		RequestedScope: m.Scope,
		EffectiveScope: m.Scope,
	}

	current, _, err := c.store.Get(m.Scope, m.Name)
	if err != nil && !errors.Is(err, ErrPrivilegeInsufficient) {
		return result, fmt.Errorf("reading %s: %w", m.Name, err)
	}
	result.OldValue = current

	desired := m.Value
	if m.Policy == PolicyAppendIfAbsent {
		appended, changed := AppendEntry(current, m.Value)
		if !changed {
			result.NewValue = current
			c.record(ctx, m, result)
			return result, nil
		}
		desired = appended
	} else if current == desired {
		result.NewValue = current
		c.record(ctx, m, result)
		return result, nil
	}

	effectiveScope := m.Scope
	writeErr := c.store.Set(m.Scope, m.Name, desired)
	if writeErr != nil && m.Scope == ScopeMachine && errors.Is(writeErr, ErrPrivilegeInsufficient) {
		log.Warn().
			Str("component", m.Component).
			Str("operation", "env_apply").
			Str("variable", m.Name).
			Msg("machine-scope write denied, falling back to user scope")

		// Recompute against the user-scope value so we don't clobber it.
		userCurrent, _, userErr := c.store.Get(ScopeUser, m.Name)
		if userErr != nil {
			return result, fmt.Errorf("reading %s (user scope): %w", m.Name, userErr)
		}
		result.OldValue = userCurrent
		desired = m.Value
		if m.Policy == PolicyAppendIfAbsent {
			appended, changed := AppendEntry(userCurrent, m.Value)
			if !changed {
				// Nothing to write, but the scope downgrade itself must still
				// surface in the run report, not just the audit log.
				result.EffectiveScope = ScopeUser
				result.Downgraded = true
				result.NewValue = userCurrent
				c.mu.Lock()
				c.applied = append(c.applied, result)
				c.mu.Unlock()
				c.record(ctx, m, result)
				return result, nil
			}
			desired = appended
		}
		effectiveScope = ScopeUser
		writeErr = c.store.Set(ScopeUser, m.Name, desired)
		result.Downgraded = writeErr == nil
	}
	if writeErr != nil {
		return result, fmt.Errorf("persisting %s: %w", m.Name, writeErr)
	}

	result.EffectiveScope = effectiveScope
	result.Changed = true
	result.NewValue = desired

	c.mu.Lock()
	c.overlay[m.Name] = c.overlayValue(m)
	c.applied = append(c.applied, result)
	c.mu.Unlock()

	c.record(ctx, m, result)
	return result, nil
}

// overlayValue computes the process-local value for a mutated variable. For
// append-if-absent the entry is appended to the inherited process value, not
// the persisted one, since the child inherits the process environment.
func (c *Configurator) overlayValue(m Mutation) string {
	if m.Policy != PolicyAppendIfAbsent {
		return m.Value
	}
	base := os.Getenv(m.Name)
	if existing, ok := c.overlay[m.Name]; ok {
		base = existing
	}
	merged, _ := AppendEntry(base, m.Value)
	return merged
}

func (c *Configurator) record(ctx context.Context, m Mutation, result ApplyResult) {
	logging.AuditLoggerFromContext(ctx).Record(logging.EnvMutationRecord{
		RunID:      c.runID,
		Component:  m.Component,
		Variable:   m.Name,
		Scope:      string(result.EffectiveScope),
		Policy:     string(m.Policy),
		OldValue:   result.OldValue,
		NewValue:   result.NewValue,
		Downgraded: result.Downgraded,
	})
}

// ProcessEnv returns KEY=VALUE entries for every variable mutated so far, for
// merging into subprocess environments.
func (c *Configurator) ProcessEnv() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.overlay))
	for name := range c.overlay {
		names = append(names, name)
	}
	sort.Strings(names)

	env := make([]string, 0, len(names))
	for _, name := range names {
		env = append(env, name+"="+c.overlay[name])
	}
	return env
}

// Applied returns the results of every mutation that changed state this run,
// plus any scope downgrades that turned out to be no-op writes.
func (c *Configurator) Applied() []ApplyResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ApplyResult, len(c.applied))
	copy(out, c.applied)
	return out
}

// Broadcast issues the single post-run environment-change broadcast. It is
// best-effort on every platform and never fails the run.
func (c *Configurator) Broadcast(ctx context.Context) BroadcastResult {
	log := logging.FromContext(ctx)

	anyChanged := false
	c.mu.Lock()
	for _, a := range c.applied {
		if a.Changed {
			anyChanged = true
			break
		}
	}
	c.mu.Unlock()
	if !anyChanged {
		return BroadcastResult{}
	}

	err := broadcastChange()
	if err != nil {
		log.Warn().
			Str("component", "envstate").
			Str("operation", "broadcast").
			Err(err).
			Msg("environment-change broadcast failed (best-effort)")
	}
	return BroadcastResult{Attempted: true, Err: err}
}
