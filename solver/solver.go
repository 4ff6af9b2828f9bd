// Package solver solves small dense linear systems with a cascade of
// decompositions: LU, then least squares through QR, then the Moore-Penrose
// pseudo-inverse through SVD.
//
// Each decomposition is an Attempt. Attempts are composed with FirstOf, which
// returns the first result that is present and valid; a result containing NaN,
// infinity or the format.Unused sentinel counts as a failed attempt.
package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/format"
)

// DefaultRcond is the relative singular-value cutoff used by SVD.
const DefaultRcond = 1e-12

// Method identifies the decomposition that produced a solution.
type Method uint8

const (
	MethodNone Method = iota
	MethodLU
	MethodQR
	MethodSVD
)

func (m Method) String() string {
	switch m {
	case MethodLU:
		return "lu"
	case MethodQR:
		return "qr"
	case MethodSVD:
		return "svd"
	default:
		return "none"
	}
}

// Solution is the result of a successful attempt.
type Solution struct {
	X      []float64
	Method Method
}

// Attempt tries to solve a·x = b. It returns an error matching
// errs.ErrSingularSystem or errs.ErrNumericInvalid when it cannot.
type Attempt func(a mat.Matrix, b []float64) (Solution, error)

// LU solves a square system exactly.
func LU() Attempt {
	return func(a mat.Matrix, b []float64) (Solution, error) {
		r, c := a.Dims()
		if r != c {
			return Solution{}, fmt.Errorf("lu: %w: %dx%d is not square", errs.ErrSingularSystem, r, c)
		}

		var lu mat.LU
		lu.Factorize(a)
		var x mat.VecDense
		if err := lu.SolveVecTo(&x, false, mat.NewVecDense(len(b), b)); err != nil {
			return Solution{}, fmt.Errorf("lu: %w: %w", errs.ErrSingularSystem, err)
		}

		return Solution{X: x.RawVector().Data, Method: MethodLU}, nil
	}
}

// QR solves the least-squares problem min |a·x - b| for rows >= columns.
func QR() Attempt {
	return func(a mat.Matrix, b []float64) (Solution, error) {
		r, c := a.Dims()
		if r < c {
			return Solution{}, fmt.Errorf("qr: %w: underdetermined %dx%d", errs.ErrSingularSystem, r, c)
		}

		var qr mat.QR
		qr.Factorize(a)
		var x mat.VecDense
		if err := qr.SolveVecTo(&x, false, mat.NewVecDense(len(b), b)); err != nil {
			return Solution{}, fmt.Errorf("qr: %w: %w", errs.ErrSingularSystem, err)
		}

		return Solution{X: x.RawVector().Data, Method: MethodQR}, nil
	}
}

// SVD computes the minimum-norm least-squares solution through the
// pseudo-inverse, ignoring singular values below rcond times the largest.
// A numerically zero matrix yields the zero vector.
func SVD(rcond float64) Attempt {
	return func(a mat.Matrix, b []float64) (Solution, error) {
		_, c := a.Dims()

		var svd mat.SVD
		if !svd.Factorize(a, mat.SVDThin) {
			return Solution{}, fmt.Errorf("svd: %w: factorization failed", errs.ErrSingularSystem)
		}

		rank := svd.Rank(rcond)
		if rank == 0 {
			return Solution{X: make([]float64, c), Method: MethodSVD}, nil
		}

		var x mat.VecDense
		svd.SolveVecTo(&x, mat.NewVecDense(len(b), b), rank)

		return Solution{X: x.RawVector().Data, Method: MethodSVD}, nil
	}
}

// FirstOf returns an Attempt that runs attempts in order and returns the first
// valid solution. The combined error joins every failure.
func FirstOf(attempts ...Attempt) Attempt {
	return func(a mat.Matrix, b []float64) (Solution, error) {
		var failures []error
		for _, attempt := range attempts {
			sol, err := attempt(a, b)
			if err == nil {
				err = Valid(sol.X)
			}
			if err == nil {
				return sol, nil
			}
			failures = append(failures, err)
		}
		if len(failures) == 0 {
			return Solution{}, errs.ErrSingularSystem
		}

		return Solution{}, errors.Join(failures...)
	}
}

// Default is the LU, QR, SVD cascade.
var Default = FirstOf(LU(), QR(), SVD(DefaultRcond))

// Solve runs the default cascade on a·x = b and reports whether any attempt succeeded.
func Solve(a mat.Matrix, b []float64) (Solution, bool) {
	sol, err := SolveErr(a, b)
	return sol, err == nil
}

// SolveErr is like Solve but returns the reason for failure.
func SolveErr(a mat.Matrix, b []float64) (Solution, error) {
	r, c := a.Dims()
	if r == 0 || c == 0 || r != len(b) {
		return Solution{}, fmt.Errorf("%w: shape %dx%d with %d right-hand values", errs.ErrSingularSystem, r, c, len(b))
	}
	if err := Valid(b); err != nil {
		return Solution{}, err
	}
	for i := range r {
		for j := range c {
			if !usable(a.At(i, j)) {
				return Solution{}, fmt.Errorf("%w: a[%d][%d]", errs.ErrNumericInvalid, i, j)
			}
		}
	}

	return Default(a, b)
}

// Valid returns an error matching errs.ErrNumericInvalid if any value is NaN,
// infinite or format.Unused.
func Valid(x []float64) error {
	for i, v := range x {
		if !usable(v) {
			return fmt.Errorf("%w: x[%d] = %g", errs.ErrNumericInvalid, i, v)
		}
	}

	return nil
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && !format.IsUnused(v)
}
