// Package dataset provides the sample abstraction consumed by the estimators:
// a restartable, forward-only cursor over profiles.
//
// A Profile is a record of typed, named fields, any of which may be missing.
// Missing values are tracked with explicit flags; NaN is accepted only at the
// input boundary (FromFloats, ReadCSV) where it is converted into a flag.
//
// # Cursor Semantics
//
// Estimators scan a sample more than once: the first pass discovers which
// columns are ever observed and the second extracts the design data. Every
// Sample implementation must therefore support Reset:
//
//	for sample.Next() {
//	    p := sample.Pick()
//	    ...
//	}
//	if err := sample.Reset(); err != nil {
//	    return err
//	}
package dataset
