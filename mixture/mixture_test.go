package mixture

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/emreg/dataset"
	"github.com/arloliu/emreg/em"
	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/format"
	"github.com/arloliu/emreg/indices"
	"github.com/arloliu/emreg/internal/synth"
	"github.com/arloliu/emreg/regression"
)

func twoLines(t *testing.T, missing []float64) *synth.Sample {
	t.Helper()
	s, err := synth.Generate(synth.Config{
		Rows: 400,
		Components: []synth.Component{
			{Alpha: []float64{0, 2}, Weight: 1, Noise: 0.3},
			{Alpha: []float64{8, -2}, Weight: 1, Noise: 0.3},
		},
		XSpread: 1,
		Missing: missing,
		Seed:    7,
	})
	require.NoError(t, err)

	return s
}

func nearest(comps Components, intercept float64) *regression.Parameter {
	best := comps[0]
	for _, c := range comps[1:] {
		if math.Abs(c.Alpha[0]-intercept) < math.Abs(best.Alpha[0]-intercept) {
			best = c
		}
	}

	return best
}

func TestSelectTwoComponents(t *testing.T) {
	s := twoLines(t, []float64{0.05, 0.05})

	sel, err := New()
	require.NoError(t, err)
	model, err := sel.Select(context.Background(), s)
	require.NoError(t, err)
	require.Same(t, model, sel.Model())

	assert.GreaterOrEqual(t, model.K(), 1)
	assert.LessOrEqual(t, model.K(), 3)

	fitnesses := model.Fitnesses()
	require.Len(t, model.History, model.K())
	for i := 1; i < len(fitnesses); i++ {
		require.GreaterOrEqual(t, fitnesses[i], fitnesses[i-1])
		require.Equal(t, model.History[i-1].K()+1, model.History[i].K())
	}
	require.Equal(t, fitnesses[len(fitnesses)-1], model.Fitness)

	if model.K() >= 2 {
		low := nearest(model.Components, 0)
		high := nearest(model.Components, 8)
		assert.InDelta(t, 0, low.Alpha[0], 0.5)
		assert.InDelta(t, 2, low.Alpha[1], 0.3)
		assert.InDelta(t, 8, high.Alpha[0], 0.5)
		assert.InDelta(t, -2, high.Alpha[1], 0.3)
	}

	total := 0.0
	for _, c := range model.Components {
		require.NotNil(t, c.Weight)
		require.NotNil(t, c.Variance)
		require.NotNil(t, c.Mean)
		require.False(t, c.Degenerate())
		total += *c.Weight
	}
	assert.InDelta(t, 1, total, 1e-6)
}

func TestSelectSingleComponent(t *testing.T) {
	s, err := synth.Linear(300, []float64{1, 2, -1}, 0.5, nil, 3)
	require.NoError(t, err)

	sel, err := New(WithMaxComponents(4))
	require.NoError(t, err)
	model, err := sel.Select(context.Background(), s)
	require.NoError(t, err)
	assert.LessOrEqual(t, model.K(), 2)

	one := model.History[0]
	require.Equal(t, 1, one.K())
	assert.InDeltaSlice(t, []float64{1, 2, -1}, one.Components[0].Alpha, 0.2)
	assert.InDelta(t, 1, *one.Components[0].Weight, 1e-9)
	assert.InDelta(t, 0.25, *one.Components[0].Variance, 0.1)
}

func TestSelectMaxComponents(t *testing.T) {
	s := twoLines(t, nil)

	sel, err := New(WithMaxComponents(1))
	require.NoError(t, err)
	model, err := sel.Select(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, 1, model.K())
	require.Nil(t, model.Rejected)
}

func TestSelectNoResponse(t *testing.T) {
	schema, err := dataset.RealSchema("x", "z")
	require.NoError(t, err)
	s, err := dataset.FromFloats(schema, [][]float64{{1, math.NaN()}, {2, math.NaN()}})
	require.NoError(t, err)

	sel, err := New()
	require.NoError(t, err)
	_, err = sel.Select(context.Background(), s)
	require.ErrorIs(t, err, errs.ErrNoModel)
	require.ErrorIs(t, err, errs.ErrInsufficientData)
	require.Nil(t, sel.Model())

	_, ok := sel.Execute(dataset.NewProfile(schema))
	require.False(t, ok)
}

func TestSelectCancelled(t *testing.T) {
	s := twoLines(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sel, err := New()
	require.NoError(t, err)
	_, err = sel.Select(ctx, s)
	require.ErrorIs(t, err, errs.ErrNoModel)
	require.ErrorIs(t, err, errs.ErrCancelled)
}

func TestSelectBadIndices(t *testing.T) {
	s := twoLines(t, nil)
	sel, err := New(WithRegressionOptions(regression.WithIndices("1, 9")))
	require.NoError(t, err)
	_, err = sel.Select(context.Background(), s)
	require.ErrorIs(t, err, errs.ErrNoModel)
	require.ErrorIs(t, err, errs.ErrParse)
}

func TestModelExecuteAndResponsibilities(t *testing.T) {
	schema, err := dataset.RealSchema("x", "z")
	require.NoError(t, err)
	model := &Model{
		Fit: Fit{Components: Components{
			{Alpha: []float64{0, 2}, Betas: []regression.Beta{regression.ConstantBeta, {0, 0.5}},
				Weight: regression.Scalar(0.25), Variance: regression.Scalar(0.1)},
			{Alpha: []float64{8, -2}, Betas: []regression.Beta{regression.ConstantBeta, {4, -0.5}},
				Weight: regression.Scalar(0.75), Variance: regression.Scalar(0.1)},
		}},
		Indices: indices.MustParse("1, 2"),
	}

	p, err := dataset.ProfileOf(schema, 1, 2)
	require.NoError(t, err)
	z, ok := model.Execute(p)
	require.True(t, ok)
	require.InDelta(t, 0.25*2+0.75*6, z, 1e-12)

	resp, ok := model.Responsibilities(p)
	require.True(t, ok)
	require.Len(t, resp, 2)
	assert.InDelta(t, 1, resp[0]+resp[1], 1e-12)
	assert.Greater(t, resp[0], 0.99)

	p.Unset(1)
	resp, ok = model.Responsibilities(p)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, resp, 1e-12)

	p.Unset(0)
	_, ok = model.Execute(p)
	require.False(t, ok)
	_, ok = model.Responsibilities(p)
	require.False(t, ok)
}

func TestSplit(t *testing.T) {
	comps := Components{
		{Alpha: []float64{1, 1}, Betas: []regression.Beta{regression.ConstantBeta, {0, 1}},
			Weight: regression.Scalar(0.2), Variance: regression.Scalar(9)},
		{Alpha: []float64{5, 0}, Betas: []regression.Beta{regression.ConstantBeta, {0, 1}},
			Weight: regression.Scalar(0.8), Variance: regression.Scalar(4)},
	}

	out := split(comps)
	require.Len(t, out, 3)
	assert.Equal(t, []float64{3, 0}, out[1].Alpha)
	assert.Equal(t, []float64{7, 0}, out[2].Alpha)
	assert.InDelta(t, 0.4, *out[1].Weight, 1e-12)
	assert.InDelta(t, 0.4, *out[2].Weight, 1e-12)
	assert.Equal(t, []float64{1, 1}, out[0].Alpha)

	// the input is not modified
	assert.Equal(t, []float64{5, 0}, comps[1].Alpha)
	assert.InDelta(t, 0.8, *comps[1].Weight, 1e-12)
}

func TestFitness(t *testing.T) {
	// one component over two columns: 3 coefficients and variance terms, no free weight
	assert.InDelta(t, -10-1.5*math.Log(100), fitness(-10, 1, 2, 100), 1e-12)
	// two components: 2·3 + 1 parameters
	assert.InDelta(t, -10-3.5*math.Log(100), fitness(-10, 2, 2, 100), 1e-12)
}

func TestReject(t *testing.T) {
	sel, err := New()
	require.NoError(t, err)

	comp := func(w float64, alpha ...float64) *regression.Parameter {
		return &regression.Parameter{
			Alpha:    alpha,
			Betas:    []regression.Beta{regression.ConstantBeta, {0, 1}},
			Weight:   regression.Scalar(w),
			Variance: regression.Scalar(1),
		}
	}
	best := Fit{Fitness: -100}

	good := Fit{Components: Components{comp(0.5, 1, 1), comp(0.5, 2, 1)}, N: 100, Fitness: -50}
	assert.Empty(t, sel.reject(good, best))

	empty := Fit{Components: Components{comp(0.99, 1, 1), comp(0.01, 2, 1)}, N: 100, Fitness: -50}
	assert.Equal(t, "empty component", sel.reject(empty, best))

	degenerate := Fit{Components: Components{comp(0.5, 1, 1), comp(0.5, 0, 0)}, N: 100, Fitness: -50}
	assert.Equal(t, "degenerate component", sel.reject(degenerate, best))

	flat := Fit{Components: good.Components, N: 100, Fitness: -99.95}
	assert.Equal(t, "no improvement", sel.reject(flat, best))

	interrupted := Fit{Components: good.Components, N: 100, Fitness: -50, State: em.StateCancelled}
	assert.Equal(t, "interrupted", sel.reject(interrupted, best))
}

func TestOptions(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, DefaultMaxComponents, cfg.MaxComponents)
	require.Equal(t, format.ThresholdRatio, cfg.Improvement.Mode)

	cfg, err = NewConfig(
		WithMaxComponents(0),
		WithImprovement(5, format.ThresholdAbsolute),
		WithMinVariance(1e-6),
		WithRegressionOptions(regression.WithLoopBalance(true), regression.WithMaxIterations(50)),
	)
	require.NoError(t, err)
	require.Equal(t, 0, cfg.MaxComponents)
	require.Equal(t, em.Threshold{Epsilon: 5, Mode: format.ThresholdAbsolute}, cfg.Improvement)
	require.InDelta(t, 1e-6, cfg.MinVariance, 0)
	require.True(t, cfg.Regression.LoopBalance)
	require.Equal(t, 50, cfg.Regression.Engine.MaxIterations)

	_, err = NewConfig(WithMaxComponents(-1))
	require.Error(t, err)
	_, err = NewConfig(WithMinVariance(0))
	require.Error(t, err)
	_, err = NewConfig(WithImprovement(-1, format.ThresholdRatio))
	require.Error(t, err)
	_, err = NewConfig(WithRegressionOptions(regression.WithIndices("1, (")))
	require.ErrorIs(t, err, errs.ErrParse)
}
