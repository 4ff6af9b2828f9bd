package mixture

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/arloliu/emreg/dataset"
	"github.com/arloliu/emreg/em"
	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/indices"
	"github.com/arloliu/emreg/regression"
)

// Selector chooses the number of mixture components by greedy growth.
//
// Select starts from one component. A mixture of k+1 components is seeded
// from the accepted k-component mixture by splitting its widest component.
// The larger mixture is accepted when every component carries enough weight,
// no component is degenerate, and the fitness improves by more than the
// configured threshold. Growth stops at the first rejected candidate or at
// MaxComponents.
//
// A Selector may be used from several goroutines; Select replaces the
// selected model atomically.
type Selector struct {
	cfg Config

	mu    sync.RWMutex
	model *Model
}

// New creates a Selector from options.
func New(opts ...Option) (*Selector, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	return NewWithConfig(cfg), nil
}

// NewWithConfig creates a Selector from a built Config.
func NewWithConfig(cfg Config) *Selector {
	cfg.Regression.Engine = cfg.Regression.Engine.Normalize()
	cfg.Regression.Prior = nil

	return &Selector{cfg: cfg}
}

// Config returns the configuration.
func (s *Selector) Config() Config {
	return s.cfg
}

// Model returns the selected model, or nil.
func (s *Selector) Model() *Model {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.model
}

// Execute predicts the response of p with the selected model, see Model.Execute.
func (s *Selector) Execute(p *dataset.Profile) (float64, bool) {
	m := s.Model()
	if m == nil {
		return 0, false
	}

	return m.Execute(p)
}

// Select fits mixtures of growing order to sample and returns the accepted one.
//
// On failure the previous model is discarded and the error matches
// errs.ErrNoModel together with the cause. Cancellation after the first
// accepted mixture stops the growth and returns that mixture.
func (s *Selector) Select(ctx context.Context, sample dataset.Sample) (*Model, error) {
	s.mu.Lock()
	s.model = nil
	s.mu.Unlock()

	logger := s.cfg.Regression.Engine.Logger

	ix, err := s.indices(sample.Schema())
	if err != nil {
		return nil, errs.NoModel(err)
	}
	design, err := regression.BuildDesign(sample, ix)
	if err != nil {
		return nil, errs.NoModel(err)
	}
	rem := regression.NewEstimator(design, s.cfg.Regression)

	seed, err := s.initial(ctx, rem)
	if err != nil {
		return nil, errs.NoModel(err)
	}
	best, err := s.fit(ctx, rem, seed)
	if err != nil {
		return nil, errs.NoModel(err)
	}
	if best.State == em.StateCancelled {
		return nil, errs.NoModel(fmt.Errorf("%w: single component fit interrupted", errs.ErrCancelled))
	}

	model := &Model{Fit: best, Indices: design.Indices, Labels: design.Labels, History: []Fit{best}}
	for s.cfg.MaxComponents == 0 || best.K() < s.cfg.MaxComponents {
		if ctx.Err() != nil {
			break
		}
		candidate, err := s.fit(ctx, rem, split(best.Components))
		if err != nil {
			logger.Debug("mixture candidate failed", slog.Int("components", best.K()+1), slog.Any("error", err))
			break
		}
		reason := s.reject(candidate, best)
		logger.Debug("mixture candidate",
			slog.Int("components", candidate.K()),
			slog.Float64("fitness", candidate.Fitness),
			slog.String("state", candidate.State.String()),
			slog.String("rejected", reason))
		if reason != "" {
			model.Rejected = &candidate
			break
		}
		best = candidate
		model.Fit = best
		model.History = append(model.History, best)
	}

	s.mu.Lock()
	s.model = model
	s.mu.Unlock()

	logger.Info("mixture selection finished",
		slog.Int("components", model.K()),
		slog.Float64("fitness", model.Fitness),
		slog.Int("candidates", len(model.History)))

	return model, nil
}

func (s *Selector) indices(schema *dataset.Schema) (*indices.Indices, error) {
	if s.cfg.Regression.Indices == "" {
		return indices.Default(schema)
	}

	return indices.Parse(s.cfg.Regression.Indices)
}

// initial returns the one-component seed: the regression initial parameter
// with weight 1 and the residual variance of its completed rows.
func (s *Selector) initial(ctx context.Context, rem *regression.Estimator) (Components, error) {
	p, err := rem.InitialParameter(ctx)
	if err != nil {
		return nil, err
	}
	stats := rem.Expect(ctx, p)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCancelled, err)
	}
	fit := regression.Evaluate(rem.Design(), p, stats)

	mean := 0.0
	for _, st := range stats {
		mean += st.Z
	}
	if len(stats) > 0 {
		mean /= float64(len(stats))
	}

	p.Weight = regression.Scalar(1)
	p.Mean = regression.Scalar(mean)
	p.Variance = regression.Scalar(math.Max(fit.Variance, s.cfg.MinVariance))

	return Components{p}, nil
}

// fit runs the mixture EM from seed and scores the result.
func (s *Selector) fit(ctx context.Context, rem *regression.Estimator, seed Components) (Fit, error) {
	est := &estimator{
		rem:         rem,
		seed:        seed,
		threshold:   s.cfg.Regression.Engine.Threshold,
		minVariance: s.cfg.MinVariance,
	}
	engine := em.NewWithConfig[Components, *expectation](est, s.cfg.Regression.Engine)
	res, err := engine.Run(ctx)
	if err != nil {
		return Fit{}, err
	}

	ex, ok := est.Expectation(context.WithoutCancel(ctx), res.Parameter)
	if !ok || ex.observed == 0 {
		return Fit{}, fmt.Errorf("%w: no row with an observed response", errs.ErrInsufficientData)
	}

	return Fit{
		Components:    res.Parameter,
		LogLikelihood: ex.ll,
		Fitness:       fitness(ex.ll, len(res.Parameter), rem.Design().Cols(), ex.observed),
		N:             ex.observed,
		Iterations:    res.Iterations,
		State:         res.State,
	}, nil
}

// reject returns why candidate cannot replace best, or "" when it can.
func (s *Selector) reject(candidate, best Fit) string {
	cols := len(candidate.Components[0].Alpha)
	for _, p := range candidate.Components {
		if p.Degenerate() {
			return "degenerate component"
		}
		// A component needs more supporting rows than coefficients.
		if weight(p)*float64(candidate.N) <= float64(cols) {
			return "empty component"
		}
	}
	if candidate.State == em.StateCancelled {
		return "interrupted"
	}
	if !s.cfg.Improvement.Improved(candidate.Fitness, best.Fitness) {
		return "no improvement"
	}

	return ""
}

// fitness is the penalized log-likelihood LL - (p/2)·ln(n) of a mixture with
// k components over cols design columns: each component contributes its
// coefficients and variance, and k-1 weights are free.
func fitness(ll float64, k, cols, n int) float64 {
	params := k*(cols+1) + k - 1

	return ll - float64(params)/2*math.Log(float64(n))
}

// split seeds a mixture of len(comps)+1 components. The component with the
// largest weight·variance is replaced by two copies whose intercepts are
// shifted by one residual standard deviation down and up, each with half the
// weight.
func split(comps Components) Components {
	widest, spread := 0, math.Inf(-1)
	for c, p := range comps {
		v := 0.0
		if p.Variance != nil {
			v = *p.Variance
		}
		if ws := weight(p) * v; ws > spread {
			widest, spread = c, ws
		}
	}

	out := comps.Clone()
	lo, hi := out[widest], out[widest].Clone()
	sd := 0.0
	if lo.Variance != nil {
		sd = math.Sqrt(*lo.Variance)
	}
	half := weight(lo) / 2
	lo.Alpha[0] -= sd
	hi.Alpha[0] += sd
	lo.Weight = regression.Scalar(half)
	hi.Weight = regression.Scalar(half)

	return append(out, hi)
}
