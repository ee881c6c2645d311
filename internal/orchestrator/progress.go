package orchestrator

import (
	"sync"
	"time"
)

// Event is one progress notification emitted while a run advances. Events are
// delivered synchronously from the run loop; handlers should be fast.
type Event struct {
	ComponentID string
	Name        string
	State       State

	// Message carries human-readable detail (failure kind, version found).
	Message string
}

// Progress tracks a run for UI updates. It is safe for concurrent reads
// while the run loop writes.
type Progress struct {
	// Total is the number of targeted components.
	Total int

	// Done is the number of components in a terminal state.
	Done int

	// Current is the id of the component being processed, empty when idle.
	Current string

	// StartTime is when the run started.
	StartTime time.Time

	mu sync.RWMutex
}

// NewProgress creates a tracker for total components.
func NewProgress(total int) *Progress {
	return &Progress{Total: total, StartTime: time.Now()}
}

// BeginComponent marks id as in-flight.
func (p *Progress) BeginComponent(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Current = id
}

// FinishComponent marks the in-flight component as done.
func (p *Progress) FinishComponent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Done++
	p.Current = ""
}

// PercentComplete returns the completion percentage (0-100).
func (p *Progress) PercentComplete() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.Total == 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total) * 100
}

// ElapsedTime returns the time elapsed since the run started.
func (p *Progress) ElapsedTime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.StartTime)
}

// Snapshot returns a copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ProgressSnapshot{
		Total:   p.Total,
		Done:    p.Done,
		Current: p.Current,
		Elapsed: time.Since(p.StartTime),
	}
}

// ProgressSnapshot is an immutable snapshot of progress state.
type ProgressSnapshot struct {
	Total   int
	Done    int
	Current string
	Elapsed time.Duration
}
