package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/format"
)

func residual(a mat.Matrix, x, b []float64) float64 {
	var ax mat.VecDense
	ax.MulVec(a, mat.NewVecDense(len(x), x))
	worst := 0.0
	for i, v := range b {
		worst = math.Max(worst, math.Abs(ax.AtVec(i)-v))
	}

	return worst
}

func TestSolveExact(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{2, 1, 1, 3})
	sol, ok := Solve(a, []float64{3, 5})
	require.True(t, ok)
	require.Equal(t, MethodLU, sol.Method)
	assert.InDelta(t, 0.8, sol.X[0], 1e-12)
	assert.InDelta(t, 1.4, sol.X[1], 1e-12)
}

func TestSolveOverdetermined(t *testing.T) {
	// y = 1 + 2x sampled without noise.
	a := mat.NewDense(4, 2, []float64{1, 0, 1, 1, 1, 2, 1, 3})
	sol, ok := Solve(a, []float64{1, 3, 5, 7})
	require.True(t, ok)
	require.Equal(t, MethodQR, sol.Method)
	assert.InDelta(t, 1, sol.X[0], 1e-10)
	assert.InDelta(t, 2, sol.X[1], 1e-10)
}

func TestSolveDuplicatedColumns(t *testing.T) {
	a := mat.NewDense(3, 3, []float64{
		1, 1, 0,
		0, 0, 1,
		0, 0, 1,
	})
	b := []float64{2, 1, 1}

	sol, ok := Solve(a, b)
	require.True(t, ok)
	require.NotEqual(t, MethodLU, sol.Method)
	require.NoError(t, Valid(sol.X))
	assert.Less(t, residual(a, sol.X, b), 1e-9)
	// Minimum-norm solution splits the weight evenly across duplicates.
	assert.InDelta(t, 1, sol.X[0], 1e-9)
	assert.InDelta(t, 1, sol.X[1], 1e-9)
	assert.InDelta(t, 1, sol.X[2], 1e-9)
}

func TestSolveZeroMatrix(t *testing.T) {
	a := mat.NewDense(2, 2, nil)
	sol, ok := Solve(a, []float64{0, 0})
	require.True(t, ok)
	require.Equal(t, MethodSVD, sol.Method)
	require.Equal(t, []float64{0, 0}, sol.X)
}

func TestSolveInvalidInput(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

	_, err := SolveErr(a, []float64{1, math.NaN()})
	require.ErrorIs(t, err, errs.ErrNumericInvalid)

	_, err = SolveErr(a, []float64{format.Unused, 1})
	require.ErrorIs(t, err, errs.ErrNumericInvalid)

	_, err = SolveErr(mat.NewDense(2, 2, []float64{1, math.Inf(1), 0, 1}), []float64{1, 1})
	require.ErrorIs(t, err, errs.ErrNumericInvalid)

	_, err = SolveErr(a, []float64{1})
	require.ErrorIs(t, err, errs.ErrSingularSystem)
}

func TestFirstOf(t *testing.T) {
	calls := 0
	bad := func(m Method, v float64) Attempt {
		return func(mat.Matrix, []float64) (Solution, error) {
			calls++
			return Solution{X: []float64{v}, Method: m}, nil
		}
	}
	failing := func(mat.Matrix, []float64) (Solution, error) {
		calls++
		return Solution{}, errs.ErrSingularSystem
	}
	a := mat.NewDense(1, 1, []float64{1})

	t.Run("skips invalid results", func(t *testing.T) {
		calls = 0
		sol, err := FirstOf(failing, bad(MethodLU, math.NaN()), bad(MethodQR, format.Unused), bad(MethodSVD, 2))(a, []float64{1})
		require.NoError(t, err)
		require.Equal(t, MethodSVD, sol.Method)
		require.Equal(t, 4, calls)
	})

	t.Run("stops at first success", func(t *testing.T) {
		calls = 0
		sol, err := FirstOf(bad(MethodLU, 1), failing)(a, []float64{1})
		require.NoError(t, err)
		require.Equal(t, MethodLU, sol.Method)
		require.Equal(t, 1, calls)
	})

	t.Run("joins failures", func(t *testing.T) {
		_, err := FirstOf(failing, bad(MethodQR, math.Inf(-1)))(a, []float64{1})
		require.ErrorIs(t, err, errs.ErrSingularSystem)
		require.ErrorIs(t, err, errs.ErrNumericInvalid)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := FirstOf()(a, []float64{1})
		require.ErrorIs(t, err, errs.ErrSingularSystem)
	})
}

func TestMethodString(t *testing.T) {
	require.Equal(t, "lu", MethodLU.String())
	require.Equal(t, "qr", MethodQR.String())
	require.Equal(t, "svd", MethodSVD.String())
	require.Equal(t, "none", MethodNone.String())
}

func BenchmarkSolve(b *testing.B) {
	a := mat.NewDense(3, 3, []float64{4, 1, 0, 1, 3, 1, 0, 1, 2})
	rhs := []float64{1, 2, 3}

	b.ReportAllocs()
	for b.Loop() {
		_, _ = Solve(a, rhs)
	}
}
