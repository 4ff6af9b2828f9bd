// Package regression implements linear regression with missing regressors and
// responses, estimated by Expectation-Maximization.
//
// The model couples two linear relations per design row [1, x1..xn] and
// response z:
//
//	z  = Alpha · [1, x1..xn]
//	xj = Betas[j][0] + Betas[j][1] · z
//
// The first is the regression of interest; the second lets a missing cell be
// imputed from whatever else is observed in the same row.
//
// # Usage
//
//	sample, err := dataset.ReadCSV(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rem, err := regression.New(regression.WithIndices("1, 2, #a*#b, 4"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	param, err := rem.Learn(ctx, sample)
//	if errors.Is(err, errs.ErrNoModel) {
//	    // no usable parameter: wrong indices, no data, or cancelled
//	}
//
//	z, ok := rem.Execute(profile) // ok is false when a regressor is missing
//
// # Fit Procedure
//
//  1. Parse the index specification and bind it to the sample schema
//  2. Scan the sample once and discard regressors that are never observed
//  3. Reset and scan again to build the design, format.Unused in missing cells
//  4. Initialize with least squares on complete rows, or with the constant model
//     (mean response, zero slopes) when there are fewer complete rows than columns
//  5. Iterate the expectation and maximization steps until convergence
//
// # Expectation Step
//
// A row with an observed response imputes each missing xj from its beta
// relation. A row with a missing response is completed twice:
//
//   - forward: z = (a + b) / (1 - c), where b is the observed part of Alpha·x
//     and a, c collect the intercepts and slopes of the missing relations
//   - dual: the missing xj are solved jointly as a linear system, then z = Alpha·x
//
// When both succeed the statistic is their element-wise mean. This averaging
// is a heuristic kept for compatibility with earlier releases; in exact
// arithmetic both estimates coincide whenever both exist. When neither
// succeeds the row is dropped for the iteration.
//
// With loop balancing enabled, rows with a missing response and at least one
// missing regressor are further refined by alternating z = Alpha·x and
// xj = beta relation until both settle within the convergence threshold.
//
// # Maximization Step
//
// Alpha solves (XᵗWX)·Alpha = XᵗWz and each beta solves the 2×2 system of xj on
// [1, z], all through the LU, QR, SVD cascade of package solver. A failed solve
// keeps the previous value of that coefficient set, or the constant model on
// the first step. Row weights are used by package mixture; a plain fit weighs
// every row 1.
//
// # Concurrency
//
// The estimator keeps no iteration state, and the expectation step may run on
// several goroutines (WithParallelism) without changing results. Fits are
// paused, resumed or stopped through an em.Controller.
package regression
