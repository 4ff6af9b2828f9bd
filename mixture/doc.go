// Package mixture selects the number of components of a mixture of
// missing-data regressions.
//
// Each component is a regression.Parameter with Weight, Mean and Variance
// set. Components share one design; the expectation step completes every row
// under every component through regression.Estimator and weighs the rows by
// their posterior component probabilities, and the maximization step solves
// each component's weighted normal equations.
//
// Orders are compared by the penalized log-likelihood LL - (p/2)·ln(n) over
// the rows with an observed response, where p counts the free parameters.
//
//	sel, err := mixture.New(
//	    mixture.WithMaxComponents(5),
//	    mixture.WithRegressionOptions(regression.WithIndices("1, 2, 3")),
//	)
//	model, err := sel.Select(ctx, sample)
//	fmt.Println(model.K(), model.Fitnesses())
package mixture
