// Package emreg fits linear regressions to data with missing regressors and
// responses using Expectation-Maximization, and selects the number of
// components of a mixture of such regressions.
//
// # Core Features
//
//   - Missing cells in any regressor or in the response; rows are completed
//     from the fitted relations instead of being discarded
//   - Regressors given by field position or by arithmetic expressions over
//     field names ("1, #a*#b, log(#c), 4")
//   - Robust normal-equation solving: LU, then QR least squares, then an SVD
//     pseudo-inverse
//   - Mixture order selection by penalized log-likelihood
//   - Pause, resume and stop of running fits; structured logging and
//     Prometheus metrics
//   - Compressed CSV export of completed rows and iteration traces
//
// # Basic Usage
//
// Fitting a regression from CSV data:
//
//	import "github.com/arloliu/emreg"
//
//	sample, err := emreg.ReadCSV(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// the last field is the response, the others are regressors
//	rem, param, err := emreg.Learn(ctx, sample)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(param.Formula(rem.Design().Labels))
//
//	z, ok := rem.Execute(profile)
//
// Selecting a mixture:
//
//	model, err := emreg.SelectMixture(ctx, sample, mixture.WithMaxComponents(4))
//	fmt.Println(model.K(), model.Fitnesses())
//
// # Package Structure
//
// This package provides top-level wrappers around the regression and mixture
// packages for the common cases. For fine-grained control use those packages
// directly; dataset, indices and expr describe the input, solver and em hold
// the numerical core, and export and metrics connect fits to the outside.
package emreg

import (
	"context"
	"io"

	"github.com/arloliu/emreg/dataset"
	"github.com/arloliu/emreg/internal/hash"
	"github.com/arloliu/emreg/mixture"
	"github.com/arloliu/emreg/regression"
)

// ReadCSV reads a sample from CSV data with a header row of field names.
// Empty cells and the tokens ?, NA, N/A and NaN are missing values.
//
// Example:
//
//	f, _ := os.Open("data.csv")
//	defer f.Close()
//	sample, err := emreg.ReadCSV(f)
func ReadCSV(r io.Reader) (*dataset.MemorySample, error) {
	return dataset.ReadCSV(r)
}

// Learn fits a missing-data regression to sample and returns the fitted
// estimator together with its parameter.
//
// Available options include:
//   - regression.WithIndices("1, 2, #a*#b, 4")
//   - regression.WithLoopBalance(true)
//   - regression.WithParallelism(0)
//   - regression.WithMaxIterations(n), regression.WithThreshold(eps, mode)
//   - regression.WithLogger(logger), regression.WithMetrics(collector)
//
// The error matches errs.ErrNoModel when no parameter could be fitted.
//
// Example:
//
//	rem, param, err := emreg.Learn(ctx, sample,
//	    regression.WithIndices("1, 2, 3"),
//	    regression.WithThreshold(1e-6, format.ThresholdAbsolute),
//	)
func Learn(ctx context.Context, sample dataset.Sample, opts ...regression.Option) (*regression.REM, *regression.Parameter, error) {
	rem, err := regression.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	param, err := rem.Learn(ctx, sample)
	if err != nil {
		return rem, nil, err
	}

	return rem, param, nil
}

// SelectMixture selects and fits a mixture of missing-data regressions.
//
// The error matches errs.ErrNoModel when not even a single component could
// be fitted.
//
// Example:
//
//	model, err := emreg.SelectMixture(ctx, sample,
//	    mixture.WithMaxComponents(5),
//	    mixture.WithRegressionOptions(regression.WithIndices("1, 2")),
//	)
func SelectMixture(ctx context.Context, sample dataset.Sample, opts ...mixture.Option) (*mixture.Model, error) {
	sel, err := mixture.New(opts...)
	if err != nil {
		return nil, err
	}

	return sel.Select(ctx, sample)
}

// FieldID returns the 64-bit identifier of a field name, the key under
// which dataset.Schema indexes its fields.
func FieldID(name string) uint64 {
	return hash.ID(name)
}
