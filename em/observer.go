package em

import "time"

// Progress describes one step of a run.
type Progress[P any] struct {
	Iteration int
	State     State
	Parameter P
	Elapsed   time.Duration
}

// Observer receives progress notifications. Calls are made synchronously on
// the fitting goroutine, so implementations should return quickly.
type Observer[P any] interface {
	OnProgress(p Progress[P])
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc[P any] func(p Progress[P])

func (f ObserverFunc[P]) OnProgress(p Progress[P]) { f(p) }
