package mixture

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/arloliu/emreg/em"
	"github.com/arloliu/emreg/regression"
)

// Components is the parameter of a mixture: one regression parameter per
// component, each carrying Weight, Mean and Variance.
type Components []*regression.Parameter

// Clone returns a deep copy.
func (c Components) Clone() Components {
	out := make(Components, len(c))
	for k, p := range c {
		out[k] = p.Clone()
	}

	return out
}

// Weights returns the component weights; a missing weight reads as zero.
func (c Components) Weights() []float64 {
	w := make([]float64, len(c))
	for k, p := range c {
		if p.Weight != nil {
			w[k] = *p.Weight
		}
	}

	return w
}

// expectation is the outcome of one mixture E-step.
type expectation struct {
	// stats[k] holds the valid statistics of component k in row order.
	stats []regression.Statistics
	// resp[k][i] is the responsibility of component k for stats[k][i].
	resp [][]float64
	// rows is the number of design rows at least one component completed.
	rows int
	// observed is the number of those rows with an observed response.
	observed int
	// ll is the mixture log-likelihood of the observed responses.
	ll float64
}

// estimator implements em.Estimator for a mixture of regressions over one design.
type estimator struct {
	rem         *regression.Estimator
	seed        Components
	threshold   em.Threshold
	minVariance float64
}

var _ em.Estimator[Components, *expectation] = (*estimator)(nil)

func (e *estimator) Initialize(context.Context) (Components, error) {
	return e.seed.Clone(), nil
}

// Expectation completes every row under every component and assigns
// responsibilities. Rows with an observed response get the posterior
// component probabilities; rows without one get the component weights.
func (e *estimator) Expectation(ctx context.Context, comps Components) (*expectation, bool) {
	d := e.rem.Design()
	rows := d.Rows()
	k := len(comps)

	// slot[c][r] is the position of row r in per[c], or -1.
	per := make([]regression.Statistics, k)
	slot := make([][]int, k)
	dists := make([]distuv.Normal, k)
	logW := make([]float64, k)
	for c, p := range comps {
		per[c] = e.rem.Expect(ctx, p)
		if ctx.Err() != nil {
			return nil, false
		}
		slot[c] = make([]int, rows)
		for r := range slot[c] {
			slot[c][r] = -1
		}
		for i, st := range per[c] {
			slot[c][st.Row] = i
		}
		dists[c] = distuv.Normal{Mu: 0, Sigma: math.Sqrt(e.variance(p))}
		logW[c] = math.Log(weight(p))
	}

	out := &expectation{stats: make([]regression.Statistics, k), resp: make([][]float64, k)}
	logp := make([]float64, k)
	for r := range rows {
		observed := !d.ResponseMissing(r)
		found := false
		for c := range comps {
			i := slot[c][r]
			if i < 0 {
				logp[c] = math.Inf(-1)
				continue
			}
			found = true
			logp[c] = logW[c]
			if observed {
				st := per[c][i]
				logp[c] += dists[c].LogProb(st.Z - floats.Dot(comps[c].Alpha, st.X))
			}
		}
		if !found {
			continue
		}

		total := floats.LogSumExp(logp)
		if math.IsInf(total, -1) || math.IsNaN(total) {
			continue
		}
		out.rows++
		if observed {
			out.observed++
			out.ll += total
		}
		for c := range comps {
			i := slot[c][r]
			if i < 0 {
				continue
			}
			out.stats[c] = append(out.stats[c], per[c][i])
			out.resp[c] = append(out.resp[c], math.Exp(logp[c]-total))
		}
	}

	return out, out.rows > 0
}

// Maximization re-estimates every component from its responsibility-weighted
// statistics. A component without responsibility keeps its coefficients and
// gets weight zero.
func (e *estimator) Maximization(ctx context.Context, ex *expectation, current Components) (Components, bool) {
	d := e.rem.Design()
	next := make(Components, len(current))
	for c, cur := range current {
		stats, resp := ex.stats[c], ex.resp[c]
		sum := floats.Sum(resp)

		var p *regression.Parameter
		if sum > 0 {
			p, _ = e.rem.Maximize(ctx, stats, resp, cur)
		}
		if p == nil {
			p = cur.Clone()
			p.Weight = regression.Scalar(0)
			next[c] = p

			continue
		}

		var wz, sw, wr2 float64
		for i, st := range stats {
			wz += resp[i] * st.Z
			if d.ResponseMissing(st.Row) {
				continue
			}
			r := st.Z - floats.Dot(p.Alpha, st.X)
			sw += resp[i]
			wr2 += resp[i] * r * r
		}
		p.Weight = regression.Scalar(sum / float64(ex.rows))
		p.Mean = regression.Scalar(wz / sum)
		if sw > 0 {
			p.Variance = regression.Scalar(math.Max(wr2/sw, e.minVariance))
		} else {
			p.Variance = regression.Scalar(e.variance(cur))
		}
		next[c] = p
	}

	return next, true
}

// Terminated reports whether every component converged within the engine threshold.
func (e *estimator) Terminated(estimated, current, _ Components) bool {
	if len(estimated) != len(current) {
		return false
	}
	for c := range estimated {
		if !regression.Converged(e.threshold, estimated[c], current[c]) {
			return false
		}
	}

	return true
}

func (e *estimator) variance(p *regression.Parameter) float64 {
	if p.Variance == nil || !(*p.Variance > e.minVariance) {
		return e.minVariance
	}

	return *p.Variance
}

func weight(p *regression.Parameter) float64 {
	if p.Weight == nil {
		return 0
	}

	return math.Max(*p.Weight, 0)
}
