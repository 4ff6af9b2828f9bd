package em

// State is the lifecycle state of a run.
type State uint8

const (
	// StateInit is the state before the initial parameter exists.
	StateInit State = iota
	// StateIterating is the state while the loop runs.
	StateIterating
	// StateConverged means Terminated accepted the last estimate.
	StateConverged
	// StateMaxIterations means the iteration limit was reached first.
	StateMaxIterations
	// StateFailed means no initial parameter could be built.
	StateFailed
	// StateStalled means an expectation or maximization step produced nothing;
	// the last good parameter is kept.
	StateStalled
	// StateCancelled means the run was stopped through its controller or context.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateMaxIterations:
		return "max_iterations"
	case StateFailed:
		return "failed"
	case StateStalled:
		return "stalled"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Done reports whether s is a terminal state.
func (s State) Done() bool {
	return s >= StateConverged
}
