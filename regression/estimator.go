package regression

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/emreg/em"
	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/internal/pool"
	"github.com/arloliu/emreg/solver"
)

// degenerateDenominator is the bound below which 1 - c in the forward
// estimate counts as zero.
const degenerateDenominator = 1e-12

// cancelCheckRows is how often expectation workers look at the context.
const cancelCheckRows = 256

// Estimator implements em.Estimator for one Design.
//
// The estimator holds no iteration state: every step receives the parameter
// it works on. One Estimator may therefore serve several concurrent runs, and
// the mixture selector drives the steps of its components directly.
type Estimator struct {
	design  *Design
	cfg     Config
	logger  *slog.Logger
	metrics em.MetricsCollector
}

var _ em.Estimator[*Parameter, Statistics] = (*Estimator)(nil)

// NewEstimator creates an estimator over d.
func NewEstimator(d *Design, cfg Config) *Estimator {
	cfg.Engine = cfg.Engine.Normalize()
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}

	return &Estimator{
		design:  d,
		cfg:     cfg,
		logger:  cfg.Engine.Logger,
		metrics: cfg.Engine.Metrics,
	}
}

// Design returns the design the estimator works on.
func (e *Estimator) Design() *Design {
	return e.design
}

// Initialize returns the configured prior or the initial parameter.
func (e *Estimator) Initialize(ctx context.Context) (*Parameter, error) {
	if prior := e.cfg.Prior; prior != nil {
		if prior.Cols() != e.design.Cols() {
			return nil, fmt.Errorf("%w: prior has %d coefficients, design has %d columns",
				errs.ErrInsufficientData, prior.Cols(), e.design.Cols())
		}

		return prior.Clone(), nil
	}

	return e.InitialParameter(ctx)
}

// InitialParameter fits ordinary least squares on the complete rows. With
// fewer complete rows than design columns it returns the constant model:
// Alpha = [mean response, 0, ...] and Betas[j] = [mean xj, 0].
func (e *Estimator) InitialParameter(ctx context.Context) (*Parameter, error) {
	d := e.design
	complete := d.CompleteRows()
	if len(complete) >= d.Cols() {
		stats := make(Statistics, len(complete))
		for i, row := range complete {
			stats[i] = Statistic{Row: row, X: d.X[row], Z: d.Z[row][1], Valid: true}
		}
		if p, ok := e.Maximize(ctx, stats, nil, nil); ok {
			e.logger.Debug("initial parameter from complete rows", slog.Int("rows", len(complete)))
			return p, nil
		}
	}

	p, ok := e.constantParameter()
	if !ok {
		return nil, fmt.Errorf("%w: no observed response", errs.ErrInsufficientData)
	}
	e.logger.Debug("initial parameter from column means", slog.Int("complete_rows", len(complete)))

	return p, nil
}

func (e *Estimator) constantParameter() (*Parameter, bool) {
	d := e.design
	cols := d.Cols()
	sums := make([]float64, cols)
	counts := make([]int, cols)
	zSum, zCount := 0.0, 0
	for r := range d.X {
		for j := 1; j < cols; j++ {
			if !d.IsMissing(r, j) {
				sums[j] += d.X[r][j]
				counts[j]++
			}
		}
		if !d.ResponseMissing(r) {
			zSum += d.Z[r][1]
			zCount++
		}
	}
	if zCount == 0 {
		return nil, false
	}

	p := NewParameter(cols)
	p.Alpha[0] = zSum / float64(zCount)
	for j := 1; j < cols; j++ {
		if counts[j] > 0 {
			p.Betas[j] = Beta{sums[j] / float64(counts[j]), 0}
		}
	}

	return p, true
}

// Expectation completes every row under p. It reports false when no row
// yields a valid statistic.
func (e *Estimator) Expectation(ctx context.Context, p *Parameter) (Statistics, bool) {
	stats := e.Expect(ctx, p)
	return stats, len(stats) > 0
}

// Expect returns the valid statistics of every design row under p, in row
// order. Rows that cannot be completed are dropped. It returns nil when ctx is
// cancelled while parallel workers are running.
func (e *Estimator) Expect(ctx context.Context, p *Parameter) Statistics {
	rows := e.design.Rows()
	all := make([]Statistic, rows)

	workers := min(e.cfg.Parallelism, rows)
	if workers <= 1 {
		for r := range rows {
			all[r] = e.expectRow(p, r)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		chunk := (rows + workers - 1) / workers
		for start := 0; start < rows; start += chunk {
			end := min(start+chunk, rows)
			g.Go(func() error {
				for r := start; r < end; r++ {
					if (r-start)%cancelCheckRows == 0 {
						if err := gctx.Err(); err != nil {
							return err
						}
					}
					all[r] = e.expectRow(p, r)
				}

				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil
		}
	}

	stats := make(Statistics, 0, rows)
	for _, st := range all {
		if st.Valid {
			stats = append(stats, st)
		}
	}
	e.metrics.RecordRows(len(stats), rows-len(stats))

	return stats
}

// ExpectRow completes a single design row under p.
func (e *Estimator) ExpectRow(p *Parameter, row int) Statistic {
	return e.expectRow(p, row)
}

func (e *Estimator) expectRow(p *Parameter, row int) Statistic {
	d := e.design
	x, z := d.X[row], d.Z[row][1]

	missing, release := pool.GetIntSlice(len(x))
	defer release()
	for j := 1; j < len(x); j++ {
		if d.IsMissing(row, j) {
			missing = append(missing, j)
		}
	}

	if !d.ResponseMissing(row) {
		st := Statistic{Row: row, X: append([]float64(nil), x...), Z: z}
		for _, j := range missing {
			st.X[j] = p.Impute(j, z)
		}
		st.validate()

		return st
	}

	fwd, fok := e.forward(p, row, missing)
	dual, dok := e.dual(p, row, missing)

	var st Statistic
	switch {
	case fok && dok:
		// The mean of the two estimates is a heuristic carried over for
		// behavioral compatibility; it is not a derived E-step.
		st = average(fwd, dual)
	case fok:
		st = fwd
	case dok:
		st = dual
	default:
		return Statistic{Row: row}
	}

	if e.cfg.LoopBalance && len(missing) > 0 {
		st = e.balance(p, st, missing)
	}
	st.validate()

	return st
}

// forward solves z = a + b + c·z where b is the observed part of Alpha·x and
// a, c collect the beta relations of the missing regressors.
func (e *Estimator) forward(p *Parameter, row int, missing []int) (Statistic, bool) {
	x := e.design.X[row]

	var a, b, c float64
	mi := 0
	for j, alpha := range p.Alpha {
		if mi < len(missing) && missing[mi] == j {
			a += alpha * p.Betas[j][0]
			c += alpha * p.Betas[j][1]
			mi++
			continue
		}
		b += alpha * x[j]
	}

	denom := 1 - c
	if math.Abs(denom) < degenerateDenominator {
		return Statistic{}, false
	}

	st := Statistic{Row: row, X: append([]float64(nil), x...), Z: (a + b) / denom}
	for _, j := range missing {
		st.X[j] = p.Impute(j, st.Z)
	}
	st.validate()

	return st, st.Valid
}

// dual solves the missing regressors jointly from
//
//	xm - beta_m1 · sum_k alpha_k·xk = beta_m0 + beta_m1 · b
//
// over the missing k, then sets z = Alpha·x.
func (e *Estimator) dual(p *Parameter, row int, missing []int) (Statistic, bool) {
	x := e.design.X[row]
	st := Statistic{Row: row, X: append([]float64(nil), x...)}

	b := 0.0
	mi := 0
	for j, alpha := range p.Alpha {
		if mi < len(missing) && missing[mi] == j {
			mi++
			continue
		}
		b += alpha * x[j]
	}

	m := len(missing)
	if m > 0 {
		a, releaseA := pool.GetFloat64Slice(m * m)
		defer releaseA()
		rhs, releaseRHS := pool.GetFloat64Slice(m)
		defer releaseRHS()
		for i, ji := range missing {
			slope := p.Betas[ji][1]
			for k, jk := range missing {
				a[i*m+k] = -slope * p.Alpha[jk]
			}
			a[i*m+i]++
			rhs[i] = p.Betas[ji][0] + slope*b
		}

		sol, ok := e.solve(mat.NewDense(m, m, a), rhs)
		if !ok {
			return Statistic{}, false
		}
		for i, j := range missing {
			st.X[j] = sol[i]
		}
	}
	st.Z = p.Predict(st.X)
	st.validate()

	return st, st.Valid
}

// balance alternates z = Alpha·x and xm = beta_m0 + beta_m1·z until both are
// stable under the engine threshold. It returns st unchanged when the
// iteration does not settle within the iteration limit.
func (e *Estimator) balance(p *Parameter, st Statistic, missing []int) Statistic {
	threshold := e.cfg.Engine.Threshold
	cur := Statistic{Row: st.Row, X: append([]float64(nil), st.X...), Z: st.Z}

	for range e.cfg.Engine.MaxIterations {
		z := p.Predict(cur.X)
		if !usable(z) {
			return st
		}
		stable := threshold.Close(z, cur.Z)
		for _, j := range missing {
			xj := p.Impute(j, z)
			if !threshold.Close(xj, cur.X[j]) {
				stable = false
			}
			cur.X[j] = xj
		}
		cur.Z = z
		if stable {
			return cur
		}
	}

	return st
}

func average(a, b Statistic) Statistic {
	st := Statistic{Row: a.Row, X: make([]float64, len(a.X)), Z: (a.Z + b.Z) / 2}
	for j := range a.X {
		st.X[j] = (a.X[j] + b.X[j]) / 2
	}

	return st
}

// Maximization re-estimates the parameter from unweighted statistics.
func (e *Estimator) Maximization(ctx context.Context, stats Statistics, current *Parameter) (*Parameter, bool) {
	return e.Maximize(ctx, stats, nil, current)
}

// Maximize solves the weighted normal equations
//
//	(XᵗWX)·Alpha = XᵗWz
//	([1,z]ᵗW[1,z])·Betas[j] = [1,z]ᵗW·xj
//
// through the robust solver. weights is aligned with stats; nil weighs every
// row 1. A coefficient set whose solve fails keeps its value from current, or
// when current is nil falls back to the constant model.
//
// It reports false when stats is empty or the weights sum to zero.
func (e *Estimator) Maximize(_ context.Context, stats Statistics, weights []float64, current *Parameter) (*Parameter, bool) {
	cols := e.design.Cols()
	if len(stats) == 0 {
		return nil, false
	}

	xtx := make([]float64, cols*cols)
	xtz := make([]float64, cols)
	swx := make([]float64, cols)
	swzx := make([]float64, cols)
	var sw, swz, swzz float64

	for i, st := range stats {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if w == 0 {
			continue
		}
		x, z := st.X, st.Z
		for a := range cols {
			wx := w * x[a]
			xtz[a] += wx * z
			swx[a] += wx
			swzx[a] += wx * z
			for b := a; b < cols; b++ {
				xtx[a*cols+b] += wx * x[b]
			}
		}
		sw += w
		swz += w * z
		swzz += w * z * z
	}
	if sw <= 0 || !usable(sw) {
		return nil, false
	}
	for a := range cols {
		for b := 0; b < a; b++ {
			xtx[a*cols+b] = xtx[b*cols+a]
		}
	}

	p := NewParameter(cols)
	if alpha, ok := e.solve(mat.NewDense(cols, cols, xtx), xtz); ok {
		p.Alpha = alpha
	} else if current != nil {
		copy(p.Alpha, current.Alpha)
	} else {
		p.Alpha[0] = swz / sw
	}

	zz := mat.NewDense(2, 2, []float64{sw, swz, swz, swzz})
	for j := 1; j < cols; j++ {
		if beta, ok := e.solve(zz, []float64{swx[j], swzx[j]}); ok {
			p.Betas[j] = Beta{beta[0], beta[1]}
		} else if current != nil {
			p.Betas[j] = current.Betas[j]
		} else {
			p.Betas[j] = Beta{swx[j] / sw, 0}
		}
	}

	return p, true
}

// Terminated reports whether every coefficient and optional scalar of
// estimated is within the engine threshold of current. previous is not used.
func (e *Estimator) Terminated(estimated, current, _ *Parameter) bool {
	return Converged(e.cfg.Engine.Threshold, estimated, current)
}

// Converged reports whether a and b agree within t: equal shapes, every Alpha
// and Beta entry close, and optional scalars symmetrically present and close.
func Converged(t em.Threshold, a, b *Parameter) bool {
	if a == nil || b == nil {
		return false
	}
	if !t.CloseAll(a.Alpha, b.Alpha) || len(a.Betas) != len(b.Betas) {
		return false
	}
	for j := range a.Betas {
		if !t.Close(a.Betas[j][0], b.Betas[j][0]) || !t.Close(a.Betas[j][1], b.Betas[j][1]) {
			return false
		}
	}

	return t.CloseOptional(a.Weight, b.Weight) &&
		t.CloseOptional(a.Mean, b.Mean) &&
		t.CloseOptional(a.Variance, b.Variance)
}

func (e *Estimator) solve(a mat.Matrix, b []float64) ([]float64, bool) {
	sol, err := solver.SolveErr(a, b)
	e.metrics.RecordSolve(sol.Method.String(), err == nil)
	if err != nil {
		e.logger.Debug("linear solve failed", slog.Any("error", err))
		return nil, false
	}

	return sol.X, true
}
