package em

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics from fits.
// Implement it to integrate with a monitoring system; package metrics provides
// a Prometheus implementation.
type MetricsCollector interface {
	// RecordIteration is called after each completed EM iteration.
	RecordIteration(duration time.Duration)

	// RecordRun is called once per run with its final state.
	RecordRun(state State, iterations int, duration time.Duration)

	// RecordRows is called after each expectation step with the number of
	// rows that produced a statistic and the number that were dropped.
	RecordRows(kept, dropped int)

	// RecordSolve is called after each linear solve with the method that
	// succeeded, or "none" when every attempt failed.
	RecordSolve(method string, ok bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIteration(time.Duration)       {}
func (NoopMetricsCollector) RecordRun(State, int, time.Duration) {}
func (NoopMetricsCollector) RecordRows(int, int)                 {}
func (NoopMetricsCollector) RecordSolve(string, bool)            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	Iterations     atomic.Int64
	IterationNanos atomic.Int64
	Runs           atomic.Int64
	Converged      atomic.Int64
	RowsKept       atomic.Int64
	RowsDropped    atomic.Int64
	Solves         atomic.Int64
	SolveFailures  atomic.Int64
	Fallbacks      atomic.Int64
}

var _ MetricsCollector = (*BasicMetricsCollector)(nil)

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(duration time.Duration) {
	b.Iterations.Add(1)
	b.IterationNanos.Add(duration.Nanoseconds())
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(state State, _ int, _ time.Duration) {
	b.Runs.Add(1)
	if state == StateConverged {
		b.Converged.Add(1)
	}
}

// RecordRows implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRows(kept, dropped int) {
	b.RowsKept.Add(int64(kept))
	b.RowsDropped.Add(int64(dropped))
}

// RecordSolve implements MetricsCollector. Any method other than LU counts as a fallback.
func (b *BasicMetricsCollector) RecordSolve(method string, ok bool) {
	b.Solves.Add(1)
	if !ok {
		b.SolveFailures.Add(1)
		return
	}
	if method != "lu" {
		b.Fallbacks.Add(1)
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector.
type BasicMetricsStats struct {
	Iterations      int64
	IterationAvg    time.Duration
	Runs            int64
	Converged       int64
	RowsKept        int64
	RowsDropped     int64
	Solves          int64
	SolveFailures   int64
	SolverFallbacks int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	stats := BasicMetricsStats{
		Iterations:      b.Iterations.Load(),
		Runs:            b.Runs.Load(),
		Converged:       b.Converged.Load(),
		RowsKept:        b.RowsKept.Load(),
		RowsDropped:     b.RowsDropped.Load(),
		Solves:          b.Solves.Load(),
		SolveFailures:   b.SolveFailures.Load(),
		SolverFallbacks: b.Fallbacks.Load(),
	}
	if stats.Iterations > 0 {
		stats.IterationAvg = time.Duration(b.IterationNanos.Load() / stats.Iterations)
	}

	return stats
}
