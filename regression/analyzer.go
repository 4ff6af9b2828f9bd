package regression

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// minVariance is the floor applied to residual variances before they enter a
// Gaussian density.
const minVariance = 1e-12

// Fit holds goodness-of-fit measures of a parameter on the rows with an
// observed response.
type Fit struct {
	// RSquared is the coefficient of determination.
	RSquared float64
	// RMSE is the root mean square error.
	RMSE float64
	// Variance is the residual variance, floored at a small positive value.
	Variance float64
	// LogLikelihood is the Gaussian log-likelihood of the residuals under Variance.
	LogLikelihood float64
	// N is the number of rows the measures were computed on.
	N int
}

// Evaluate computes the fit of p on the statistics whose response was observed
// in d. The completed regressors of each statistic are used as they are.
func Evaluate(d *Design, p *Parameter, stats Statistics) Fit {
	observed := make([]float64, 0, len(stats))
	predicted := make([]float64, 0, len(stats))
	for _, st := range stats {
		if d.ResponseMissing(st.Row) {
			continue
		}
		observed = append(observed, st.Z)
		predicted = append(predicted, floats.Dot(p.Alpha, st.X))
	}

	return evaluate(observed, predicted)
}

func evaluate(observed, predicted []float64) Fit {
	n := len(observed)
	if n == 0 {
		return Fit{}
	}

	rmse := calculateRMSE(observed, predicted)
	variance := math.Max(rmse*rmse, minVariance)

	return Fit{
		RSquared:      calculateRSquared(observed, predicted),
		RMSE:          rmse,
		Variance:      variance,
		LogLikelihood: GaussianLogLikelihood(observed, predicted, nil, variance),
		N:             n,
	}
}

// GaussianLogLikelihood returns the weighted sum of log N(observed | predicted, variance).
// weights may be nil for unit weights.
func GaussianLogLikelihood(observed, predicted, weights []float64, variance float64) float64 {
	dist := distuv.Normal{Mu: 0, Sigma: math.Sqrt(math.Max(variance, minVariance))}

	ll := 0.0
	for i := range observed {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		ll += w * dist.LogProb(observed[i]-predicted[i])
	}

	return ll
}

// calculateRSquared calculates the coefficient of determination.
//
// Formula: R² = 1 - (SS_res / SS_tot). A constant observed series yields 0.
func calculateRSquared(observed, predicted []float64) float64 {
	if len(observed) < 2 || stat.Variance(observed, nil) == 0 {
		return 0
	}

	return stat.RSquaredFrom(predicted, observed, nil)
}

// calculateRMSE calculates the root mean square error.
//
// Formula: RMSE = √(Σ(observed - predicted)² / n)
func calculateRMSE(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return 0
	}

	sumSq := 0.0
	for i := range observed {
		diff := observed[i] - predicted[i]
		sumSq += diff * diff
	}

	return math.Sqrt(sumSq / float64(len(observed)))
}
