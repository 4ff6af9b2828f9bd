package em

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/arloliu/emreg/errs"
)

// Estimator is one EM algorithm family with parameter type P and statistics type S.
//
// Implementations must not keep iteration state between calls; everything a
// step needs arrives through its arguments.
type Estimator[P, S any] interface {
	// Initialize builds the starting parameter. An error aborts the run with StateFailed.
	Initialize(ctx context.Context) (P, error)

	// Expectation computes the statistics under param. It reports false when
	// no statistics could be produced.
	Expectation(ctx context.Context, param P) (S, bool)

	// Maximization estimates a new parameter from stats. current is the
	// parameter the statistics were computed under and may serve as fallback.
	// It reports false when no parameter could be produced.
	Maximization(ctx context.Context, stats S, current P) (P, bool)

	// Terminated reports whether estimated is close enough to current to stop.
	// previous is the parameter before current, or the zero P on the first iteration.
	Terminated(estimated, current, previous P) bool
}

// Result is the outcome of a run.
type Result[P any] struct {
	// Parameter is the last good parameter. It is the zero P when HasParameter is false.
	Parameter    P
	HasParameter bool
	State        State
	Iterations   int
	Elapsed      time.Duration
}

// Engine runs an Estimator.
type Engine[P, S any] struct {
	estimator Estimator[P, S]
	cfg       Config
	observers []Observer[P]
}

// New creates an engine for estimator.
func New[P, S any](estimator Estimator[P, S], opts ...Option) (*Engine[P, S], error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	return NewWithConfig(estimator, cfg), nil
}

// NewWithConfig creates an engine from an already built Config.
func NewWithConfig[P, S any](estimator Estimator[P, S], cfg Config) *Engine[P, S] {
	return &Engine[P, S]{estimator: estimator, cfg: cfg.Normalize()}
}

// Observe registers observers. It must not be called concurrently with Run.
func (e *Engine[P, S]) Observe(observers ...Observer[P]) {
	e.observers = append(e.observers, observers...)
}

// Config returns the engine configuration.
func (e *Engine[P, S]) Config() Config {
	return e.cfg
}

// Run executes the EM loop.
//
// The returned error is non-nil only when no parameter exists: the estimator
// failed to initialize, or the run was cancelled before initialization.
// Cancellation after initialization returns the last good parameter with
// StateCancelled and a nil error.
func (e *Engine[P, S]) Run(ctx context.Context) (Result[P], error) {
	start := time.Now()
	logger := e.cfg.Logger
	res := Result[P]{State: StateInit}

	finish := func(state State) {
		res.State = state
		res.Elapsed = time.Since(start)
		e.cfg.Metrics.RecordRun(state, res.Iterations, res.Elapsed)
		e.notify(res.Iterations, state, res.Parameter, res.Elapsed)
		logger.Debug("em run finished",
			slog.String("state", state.String()),
			slog.Int("iterations", res.Iterations),
			slog.Duration("elapsed", res.Elapsed))
	}

	if err := e.checkpoint(ctx); err != nil {
		finish(StateCancelled)
		return res, err
	}

	param, err := e.estimator.Initialize(ctx)
	if err != nil {
		finish(StateFailed)
		return res, err
	}
	res.Parameter, res.HasParameter = param, true
	res.State = StateIterating

	var previous P
	progress := rate.Sometimes{Interval: e.cfg.ProgressInterval}

	for iteration := 1; iteration <= e.cfg.MaxIterations; iteration++ {
		if err := e.checkpoint(ctx); err != nil {
			logger.Debug("em run interrupted", slog.Int("iteration", iteration), slog.Any("error", err))
			finish(StateCancelled)
			return res, nil
		}

		iterStart := time.Now()
		stats, ok := e.estimator.Expectation(ctx, param)
		if !ok {
			finish(e.stalledOrCancelled(ctx))
			return res, nil
		}
		estimated, ok := e.estimator.Maximization(ctx, stats, param)
		if !ok {
			finish(e.stalledOrCancelled(ctx))
			return res, nil
		}

		done := e.estimator.Terminated(estimated, param, previous)
		previous, param = param, estimated
		res.Parameter = param
		res.Iterations = iteration

		took := time.Since(iterStart)
		e.cfg.Metrics.RecordIteration(took)
		logger.Debug("em iteration", slog.Int("iteration", iteration), slog.Duration("took", took), slog.Bool("converged", done))
		progress.Do(func() {
			logger.Info("em progress", slog.Int("iteration", iteration), slog.Duration("elapsed", time.Since(start)))
		})

		if done {
			finish(StateConverged)
			return res, nil
		}
		e.notify(iteration, StateIterating, param, time.Since(start))
	}

	finish(StateMaxIterations)

	return res, nil
}

// checkpoint blocks while paused and returns an error matching errs.ErrCancelled
// once the run must stop.
func (e *Engine[P, S]) checkpoint(ctx context.Context) error {
	var err error
	if e.cfg.Controller != nil {
		err = e.cfg.Controller.Wait(ctx)
	} else {
		err = ctx.Err()
	}
	if err == nil || errors.Is(err, errs.ErrCancelled) {
		return err
	}

	return fmt.Errorf("%w: %w", errs.ErrCancelled, err)
}

// stalledOrCancelled classifies an empty step: steps may give up early when
// the context is cancelled mid-iteration.
func (e *Engine[P, S]) stalledOrCancelled(ctx context.Context) State {
	if ctx.Err() != nil || (e.cfg.Controller != nil && e.cfg.Controller.Stopped()) {
		return StateCancelled
	}

	return StateStalled
}

func (e *Engine[P, S]) notify(iteration int, state State, param P, elapsed time.Duration) {
	if len(e.observers) == 0 {
		return
	}
	p := Progress[P]{Iteration: iteration, State: state, Parameter: param, Elapsed: elapsed}
	for _, o := range e.observers {
		o.OnProgress(p)
	}
}
