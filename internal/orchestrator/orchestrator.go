// Package orchestrator drives components through the install lifecycle:
// probe, select strategies, install with fallback, verify, configure the
// environment. Components are processed sequentially in dependency order and
// every run produces a complete report.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rigup-dev/rigup/internal/catalog"
	"github.com/rigup-dev/rigup/internal/envstate"
	"github.com/rigup-dev/rigup/internal/executor"
	"github.com/rigup-dev/rigup/internal/logging"
	"github.com/rigup-dev/rigup/internal/probe"
)

// Options configures an Orchestrator. Zero values select production
// defaults; tests substitute stores and stat functions.
type Options struct {
	// Store persists environment mutations. Nil selects the platform store.
	Store envstate.Store

	// Stat overrides artifact existence checks.
	Stat executor.StatFunc

	// ProbeTimeout overrides the prober default when non-zero.
	ProbeTimeout time.Duration

	// StepTimeout overrides the executor default when non-zero.
	StepTimeout time.Duration
}

// RunOptions selects what a run covers and how it reports progress.
type RunOptions struct {
	// Components restricts the run to these catalog ids (plus their
	// transitive dependencies). Empty means every component.
	Components []string

	// OnProgress, when set, receives an event at every state transition.
	// Called synchronously from the run loop.
	OnProgress func(Event)
}

// Orchestrator owns one catalog and the machinery to reconcile the machine
// against it.
type Orchestrator struct {
	catalog *catalog.Catalog
	prober  *probe.Prober
	exec    *executor.Executor
	env     *envstate.Configurator
	runID   string

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// New builds an Orchestrator over a validated catalog.
func New(cat *catalog.Catalog, opts Options) *Orchestrator {
	store := opts.Store
	if store == nil {
		store = envstate.NewDefaultStore()
	}
	runID := logging.NewTraceID()
	prober := &probe.Prober{Timeout: opts.ProbeTimeout}
	return &Orchestrator{
		catalog: cat,
		prober:  prober,
		exec: &executor.Executor{
			Prober:      prober,
			Stat:        opts.Stat,
			StepTimeout: opts.StepTimeout,
		},
		env:   envstate.NewConfigurator(store, runID),
		runID: runID,
	}
}

// RunID returns the ULID identifying this orchestrator's run.
func (o *Orchestrator) RunID() string { return o.runID }

// Configurator exposes the environment configurator for the env subcommands.
func (o *Orchestrator) Configurator() *envstate.Configurator { return o.env }

// probeAllConcurrency bounds parallel probes in ProbeAll.
const probeAllConcurrency = 4

// ProbeAll probes every catalog component without mutating anything. Probes
// are pure reads, so they run concurrently. Results are keyed by component
// id.
func (o *Orchestrator) ProbeAll(ctx context.Context) (map[string]probe.Result, error) {
	results := make(map[string]probe.Result, len(o.catalog.Components))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeAllConcurrency)
	for _, spec := range o.catalog.Components {
		spec := spec
		g.Go(func() error {
			res, err := o.prober.Probe(gctx, spec)
			if err != nil {
				return err
			}
			mu.Lock()
			results[spec.ID] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Cancel aborts an in-flight run cooperatively: the running subprocess is
// killed, later components are not started, and already-applied environment
// mutations stay in place.
func (o *Orchestrator) Cancel() {
	o.cancelMu.Lock()
	defer o.cancelMu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// resolveTargets expands the requested subset with transitive dependencies
// and returns ids in dependency order. An unknown id is a structural error.
func (o *Orchestrator) resolveTargets(requested []string) ([]string, error) {
	topo, err := o.catalog.TopoOrder()
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		return topo, nil
	}

	wanted := make(map[string]bool, len(requested))
	for _, id := range requested {
		spec, ok := o.catalog.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown component %q", id)
		}
		for {
			if wanted[spec.ID] {
				break
			}
			wanted[spec.ID] = true
			if spec.DependsOn == "" {
				break
			}
			spec, _ = o.catalog.Get(spec.DependsOn)
		}
	}

	var targets []string
	for _, id := range topo {
		if wanted[id] {
			targets = append(targets, id)
		}
	}
	return targets, nil
}

// Run reconciles the targeted components against the catalog. Per-component
// failures never surface as an error: the report carries them. The error
// return covers structural problems only (unknown component id).
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	log := logging.FromContext(ctx)

	targets, err := o.resolveTargets(opts.Components)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.cancelMu.Lock()
	o.cancel = cancel
	o.cancelMu.Unlock()

	report := &Report{
		RunID:   o.runID,
		Started: time.Now(),
	}
	progress := NewProgress(len(targets))
	succeeded := make(map[string]bool, len(targets))

	log.Info().
		Str("operation", "run").
		Str("run_id", o.runID).
		Int("components", len(targets)).
		Msg("starting installation run")

	cancelled := false
	for _, id := range targets {
		spec, _ := o.catalog.Get(id)

		if runCtx.Err() != nil {
			cancelled = true
			report.Results = append(report.Results, ComponentResult{
				ID: id, Name: spec.Name, State: StateCancelled, Reason: ReasonCancelled,
			})
			continue
		}

		progress.BeginComponent(id)
		result := o.runComponent(runCtx, spec, succeeded, opts.OnProgress)
		progress.FinishComponent()

		if runCtx.Err() != nil && !result.State.Succeeded() {
			result.State = StateCancelled
			result.Reason = ReasonCancelled
			cancelled = true
		}
		succeeded[id] = result.State.Succeeded()
		report.Results = append(report.Results, result)
	}

	report.EnvChanges = o.env.Applied()
	report.Broadcast = o.env.Broadcast(ctx)
	report.Finished = time.Now()
	report.computeOutcome(cancelled)

	log.Info().
		Str("operation", "run").
		Str("run_id", o.runID).
		Str("outcome", report.Outcome.String()).
		Dur("elapsed", report.Finished.Sub(report.Started)).
		Msg("installation run finished")

	return report, nil
}

// runComponent takes one component from Pending to a terminal state.
func (o *Orchestrator) runComponent(ctx context.Context, spec catalog.ComponentSpec, succeeded map[string]bool, onProgress func(Event)) ComponentResult {
	log := logging.FromContext(ctx)
	start := time.Now()

	result := ComponentResult{ID: spec.ID, Name: spec.Name, State: StatePending}
	emit := func(state State, message string) {
		result.State = state
		if onProgress != nil {
			onProgress(Event{ComponentID: spec.ID, Name: spec.Name, State: state, Message: message})
		}
	}

	if spec.DependsOn != "" && !succeeded[spec.DependsOn] {
		result.Reason = ReasonDependencyBlocked
		emit(StateBlocked, "dependency "+spec.DependsOn+" did not succeed")
		result.Duration = time.Since(start)
		log.Warn().
			Str("component", spec.ID).
			Str("operation", "gate").
			Str("depends_on", spec.DependsOn).
			Msg("component skipped: dependency not satisfied")
		return result
	}

	// Later components must observe mutations applied by earlier ones.
	o.refreshEnv()

	emit(StateProbing, "")
	probeRes, err := o.prober.Probe(ctx, spec)
	if err != nil {
		result.Reason = ReasonCancelled
		emit(StateCancelled, "")
		result.Duration = time.Since(start)
		return result
	}
	result.ProbeStatus = probeRes.Status
	result.Version = probeRes.Version

	if probeRes.Status == probe.StatusInstalled {
		if err := o.applyEnv(ctx, spec); err != nil {
			log.Warn().
				Str("component", spec.ID).
				Str("operation", "env_apply").
				Err(err).
				Msg("environment configuration failed for satisfied component")
		}
		emit(StateSatisfied, "already at "+probeRes.Version.String())
		result.Duration = time.Since(start)
		return result
	}

	emit(StateNeedsInstall, probeRes.Status.String())
	emit(StateInstalling, "")

	outcome, err := o.exec.Install(ctx, spec)
	result.Attempts = outcome.Attempts
	result.Skipped = outcome.Skipped
	if err != nil {
		result.Reason = ReasonCancelled
		emit(StateCancelled, "")
		result.Duration = time.Since(start)
		return result
	}

	if !outcome.Verified {
		result.Reason = ReasonOwnFailure
		emit(StateExhausted, "all install strategies failed")
		result.Duration = time.Since(start)
		return result
	}

	result.Version = outcome.Version
	if err := o.applyEnv(ctx, spec); err != nil {
		// The component is installed; a failed durable env write degrades the
		// run but does not undo the install.
		log.Warn().
			Str("component", spec.ID).
			Str("operation", "env_apply").
			Err(err).
			Msg("environment configuration failed after install")
		result.Reason = ReasonOwnFailure
		emit(StateExhausted, "environment configuration failed")
		result.Duration = time.Since(start)
		return result
	}

	emit(StateVerified, outcome.Version.String())
	result.Duration = time.Since(start)
	return result
}

// applyEnv applies a component's declared environment mutations. Idempotent:
// re-applying for an already-satisfied component changes nothing.
func (o *Orchestrator) applyEnv(ctx context.Context, spec catalog.ComponentSpec) error {
	muts, err := MutationsFor(spec)
	if err != nil {
		return err
	}
	for _, m := range muts {
		if _, err := o.env.Apply(ctx, m); err != nil {
			return err
		}
	}
	o.refreshEnv()
	return nil
}

// refreshEnv pushes the configurator's process overlay into the prober and
// executor.
func (o *Orchestrator) refreshEnv() {
	env := o.env.ProcessEnv()
	o.prober.Env = env
	o.exec.Env = env
}

// MutationsFor converts a component's catalog env entries into mutations.
func MutationsFor(spec catalog.ComponentSpec) ([]envstate.Mutation, error) {
	muts := make([]envstate.Mutation, 0, len(spec.Env))
	for _, v := range spec.Env {
		scope, err := envstate.ParseScope(v.Scope)
		if err != nil {
			return nil, fmt.Errorf("component %s env %s: %w", spec.ID, v.Name, err)
		}
		policy, err := envstate.ParsePolicy(v.Policy)
		if err != nil {
			return nil, fmt.Errorf("component %s env %s: %w", spec.ID, v.Name, err)
		}
		muts = append(muts, envstate.Mutation{
			Component: spec.ID,
			Name:      v.Name,
			Scope:     scope,
			Value:     v.Value,
			Policy:    policy,
		})
	}
	return muts, nil
}
