package mixture

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/arloliu/emreg/dataset"
	"github.com/arloliu/emreg/em"
	"github.com/arloliu/emreg/indices"
)

// Fit is one fitted mixture of a fixed order.
type Fit struct {
	Components Components
	// LogLikelihood is the mixture log-likelihood of the rows with an observed response.
	LogLikelihood float64
	// Fitness is the penalized log-likelihood used to compare orders; higher is better.
	Fitness float64
	// N is the number of rows with an observed response.
	N          int
	Iterations int
	State      em.State
}

// K returns the number of components.
func (f Fit) K() int {
	return len(f.Components)
}

// String returns a one-line description of the fit.
func (f Fit) String() string {
	return fmt.Sprintf("Fit{K: %d, Fitness: %.4f, LL: %.4f, N: %d, Iterations: %d, State: %s}",
		f.K(), f.Fitness, f.LogLikelihood, f.N, f.Iterations, f.State)
}

// Model is the outcome of an order selection.
type Model struct {
	// Fit is the accepted mixture.
	Fit
	// Indices lists the kept regressors and the response.
	Indices *indices.Indices
	// Labels names each design column, "1" first.
	Labels []string
	// History holds every accepted fit in order of growth, one component first.
	// Fitness never decreases along it.
	History []Fit
	// Rejected is the candidate that stopped the growth, or nil when the
	// growth hit MaxComponents or was interrupted.
	Rejected *Fit
}

// Fitnesses returns the fitness of every accepted order.
func (m *Model) Fitnesses() []float64 {
	out := make([]float64, len(m.History))
	for i, f := range m.History {
		out[i] = f.Fitness
	}

	return out
}

// Execute predicts the response of p as the weight-averaged prediction of
// every component. Every kept regressor must be observed in p.
func (m *Model) Execute(p *dataset.Profile) (float64, bool) {
	x, ok := m.design(p)
	if !ok {
		return 0, false
	}

	weights := m.Components.Weights()
	total := floats.Sum(weights)
	if !(total > 0) {
		return 0, false
	}
	z := 0.0
	for k, c := range m.Components {
		z += weights[k] * c.Predict(x)
	}
	z /= total

	return z, !math.IsNaN(z) && !math.IsInf(z, 0)
}

// Responsibilities returns the probability of each component for p. With an
// observed response these are the posterior probabilities; otherwise the
// normalized component weights. Every kept regressor must be observed.
func (m *Model) Responsibilities(p *dataset.Profile) ([]float64, bool) {
	x, ok := m.design(p)
	if !ok {
		return nil, false
	}

	logp := make([]float64, m.K())
	z, observed := m.Indices.Response().Value(p)
	for k, c := range m.Components {
		logp[k] = math.Log(weight(c))
		if observed {
			v := 0.0
			if c.Variance != nil {
				v = *c.Variance
			}
			dist := distuv.Normal{Mu: 0, Sigma: math.Sqrt(math.Max(v, math.SmallestNonzeroFloat64))}
			logp[k] += dist.LogProb(z - c.Predict(x))
		}
	}

	total := floats.LogSumExp(logp)
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return nil, false
	}
	for k := range logp {
		logp[k] = math.Exp(logp[k] - total)
	}

	return logp, true
}

// String describes the accepted mixture and its components.
func (m *Model) String() string {
	var sb strings.Builder
	sb.WriteString(m.Fit.String())
	for k, c := range m.Components {
		fmt.Fprintf(&sb, "\n  [%d] weight=%.4f variance=%.4g %s", k, weight(c), deref(c.Variance), c.Formula(m.Labels))
	}

	return sb.String()
}

func (m *Model) design(p *dataset.Profile) ([]float64, bool) {
	if m == nil || m.K() == 0 || m.Indices == nil {
		return nil, false
	}
	x := make([]float64, len(m.Indices.X))
	for j, idx := range m.Indices.X {
		v, ok := idx.Value(p)
		if !ok {
			return nil, false
		}
		x[j] = v
	}

	return x, true
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}

	return *v
}
