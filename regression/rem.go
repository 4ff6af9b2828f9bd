package regression

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arloliu/emreg/dataset"
	"github.com/arloliu/emreg/em"
	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/indices"
)

// REM is the missing-data regression estimator.
//
// Learn fits a parameter from a sample; Execute predicts the response of a
// profile with the fitted parameter. A REM may be used from several goroutines;
// Learn replaces the fitted state atomically.
type REM struct {
	cfg Config

	mu     sync.RWMutex
	param  *Parameter
	design *Design
	stats  Statistics
	result em.Result[*Parameter]
}

// New creates a REM from options.
//
// Example:
//
//	rem, err := regression.New(
//	    regression.WithIndices("1, 2, 3"),
//	    regression.WithThreshold(1e-3, format.ThresholdAbsolute),
//	)
func New(opts ...Option) (*REM, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	return NewWithConfig(cfg), nil
}

// NewWithConfig creates a REM from a built Config.
func NewWithConfig(cfg Config) *REM {
	cfg.Engine = cfg.Engine.Normalize()
	return &REM{cfg: cfg}
}

// Config returns the configuration.
func (r *REM) Config() Config {
	return r.cfg
}

// Learn fits the model to sample and returns the fitted parameter.
//
// The sample is scanned twice (see BuildDesign) and not read again. On
// failure the previous fit is discarded, Execute reports no result, and the
// returned error matches errs.ErrNoModel together with the cause: errs.ErrParse,
// errs.ErrInsufficientData or errs.ErrCancelled.
func (r *REM) Learn(ctx context.Context, sample dataset.Sample) (*Parameter, error) {
	r.mu.Lock()
	r.param, r.design, r.stats, r.result = nil, nil, nil, em.Result[*Parameter]{}
	r.mu.Unlock()

	logger := r.cfg.Engine.Logger

	ix, err := r.indices(sample.Schema())
	if err != nil {
		return nil, errs.NoModel(err)
	}
	design, err := BuildDesign(sample, ix)
	if err != nil {
		return nil, errs.NoModel(err)
	}
	logger.Debug("design built",
		slog.Int("rows", design.Rows()),
		slog.Int("cols", design.Cols()),
		slog.String("indices", design.Indices.String()))

	est := NewEstimator(design, r.cfg)
	engine := em.NewWithConfig[*Parameter, Statistics](est, r.cfg.Engine)
	engine.Observe(r.cfg.Observers...)

	res, err := engine.Run(ctx)
	if err != nil {
		return nil, errs.NoModel(err)
	}
	if err := res.Parameter.Validate(); err != nil {
		return nil, errs.NoModel(fmt.Errorf("%w: %w", errs.ErrNumericInvalid, err))
	}

	stats := est.Expect(context.WithoutCancel(ctx), res.Parameter)

	r.mu.Lock()
	r.param, r.design, r.stats, r.result = res.Parameter, design, stats, res
	r.mu.Unlock()

	logger.Info("rem fit finished",
		slog.String("state", res.State.String()),
		slog.Int("iterations", res.Iterations),
		slog.String("formula", res.Parameter.Formula(design.Labels)))

	return res.Parameter, nil
}

func (r *REM) indices(schema *dataset.Schema) (*indices.Indices, error) {
	if r.cfg.Indices == "" {
		return indices.Default(schema)
	}

	return indices.Parse(r.cfg.Indices)
}

// Execute predicts the response of p. Every kept regressor must be observed
// in p; otherwise, or when no model is fitted, it reports false.
func (r *REM) Execute(p *dataset.Profile) (float64, bool) {
	r.mu.RLock()
	param, design := r.param, r.design
	r.mu.RUnlock()
	if param == nil {
		return 0, false
	}

	return predict(param, design.Indices, p)
}

func predict(param *Parameter, ix *indices.Indices, p *dataset.Profile) (float64, bool) {
	x := make([]float64, len(ix.X))
	for j, idx := range ix.X {
		v, ok := idx.Value(p)
		if !ok {
			return 0, false
		}
		x[j] = v
	}

	z := param.Predict(x)

	return z, usable(z)
}

// Parameter returns the fitted parameter, or nil.
func (r *REM) Parameter() *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.param
}

// Design returns the design of the last successful fit, or nil.
func (r *REM) Design() *Design {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.design
}

// Statistics returns the completed rows under the fitted parameter.
func (r *REM) Statistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.stats
}

// Result returns the engine outcome of the last successful fit.
func (r *REM) Result() em.Result[*Parameter] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.result
}

// Summary describes the last fit. It reports false when no model is fitted.
func (r *REM) Summary() (Summary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.param == nil {
		return Summary{}, false
	}

	return summarize(r.design, r.param, r.stats, r.result), true
}

// Predictor predicts responses with a fixed parameter and index list.
// It is the stateless counterpart of REM.Execute.
type Predictor struct {
	Parameter *Parameter
	Indices   *indices.Indices
}

// Execute predicts the response of p, see REM.Execute.
func (pr Predictor) Execute(p *dataset.Profile) (float64, bool) {
	if pr.Parameter == nil || pr.Indices == nil {
		return 0, false
	}

	return predict(pr.Parameter, pr.Indices, p)
}
