package orchestrator

// State is a component's position in the install lifecycle. Transitions are
// strictly forward within one run:
//
//	Pending -> Probing -> Satisfied
//	                   -> NeedsInstall -> Installing -> Verified
//	                                                 -> Exhausted
//
// Components that never start (gated on a failed dependency, or behind a
// cancellation point) end the run in Blocked or Cancelled.
type State int

const (
	StatePending State = iota
	StateProbing
	StateSatisfied
	StateNeedsInstall
	StateInstalling
	StateVerified
	StateExhausted
	StateBlocked
	StateCancelled
)

// String returns the state name used in reports and logs.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateProbing:
		return "probing"
	case StateSatisfied:
		return "satisfied"
	case StateNeedsInstall:
		return "needs-install"
	case StateInstalling:
		return "installing"
	case StateVerified:
		return "verified"
	case StateExhausted:
		return "exhausted"
	case StateBlocked:
		return "blocked"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Succeeded reports whether the state is a successful terminal state.
func (s State) Succeeded() bool {
	return s == StateSatisfied || s == StateVerified
}

// Reason explains a non-successful terminal state.
type Reason int

const (
	// ReasonNone marks successful components.
	ReasonNone Reason = iota

	// ReasonOwnFailure means the component's own install attempts were
	// exhausted without verification.
	ReasonOwnFailure

	// ReasonDependencyBlocked means the component was skipped because the
	// component it depends on did not succeed. No install attempt is made.
	ReasonDependencyBlocked

	// ReasonCancelled means the run was aborted before or during this
	// component's processing.
	ReasonCancelled
)

// String returns the reason name used in reports and logs.
func (r Reason) String() string {
	switch r {
	case ReasonOwnFailure:
		return "own-failure"
	case ReasonDependencyBlocked:
		return "dependency-blocked"
	case ReasonCancelled:
		return "cancelled"
	default:
		return "none"
	}
}
