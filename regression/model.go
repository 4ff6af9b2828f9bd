package regression

import (
	"fmt"

	"github.com/arloliu/emreg/em"
)

// Summary describes a completed fit.
//
// Fields:
//   - Fit: goodness of fit on rows with an observed response
//   - Rows: design rows used by the fit
//   - Complete: rows without any missing cell
//   - Dropped: rows the final expectation step could not complete
//   - Iterations, State: outcome of the EM loop
//   - Formula: the fitted relation with design column labels
type Summary struct {
	Fit

	Rows       int
	Complete   int
	Dropped    int
	Iterations int
	State      em.State
	Formula    string
}

// String returns a one-line summary of the fit.
func (s Summary) String() string {
	return fmt.Sprintf("Summary{State: %s, Iterations: %d, Rows: %d, R²: %.4f, RMSE: %.4f, LL: %.4f, Formula: %s}",
		s.State, s.Iterations, s.Rows, s.RSquared, s.RMSE, s.LogLikelihood, s.Formula)
}

func summarize(d *Design, p *Parameter, stats Statistics, res em.Result[*Parameter]) Summary {
	return Summary{
		Fit:        Evaluate(d, p, stats),
		Rows:       d.Rows(),
		Complete:   len(d.CompleteRows()),
		Dropped:    d.Rows() - len(stats),
		Iterations: res.Iterations,
		State:      res.State,
		Formula:    p.Formula(d.Labels),
	}
}
