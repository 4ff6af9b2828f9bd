package em

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/format"
)

// meanEstimator estimates the mean of values where NaN marks a missing entry.
// Missing entries are imputed with the current mean; the fixed point is the
// mean of the observed entries.
type meanEstimator struct {
	values    []float64
	threshold Threshold
	stallAt   int
	calls     int
	onStep    func(iteration int)
}

func (m *meanEstimator) Initialize(context.Context) (float64, error) {
	for _, v := range m.values {
		if !math.IsNaN(v) {
			return 0, nil
		}
	}

	return 0, errs.ErrInsufficientData
}

func (m *meanEstimator) Expectation(_ context.Context, mean float64) ([]float64, bool) {
	m.calls++
	if m.onStep != nil {
		m.onStep(m.calls)
	}
	if m.stallAt > 0 && m.calls >= m.stallAt {
		return nil, false
	}
	out := make([]float64, len(m.values))
	for i, v := range m.values {
		if math.IsNaN(v) {
			v = mean
		}
		out[i] = v
	}

	return out, true
}

func (m *meanEstimator) Maximization(_ context.Context, stats []float64, _ float64) (float64, bool) {
	sum := 0.0
	for _, v := range stats {
		sum += v
	}

	return sum / float64(len(stats)), true
}

func (m *meanEstimator) Terminated(estimated, current, _ float64) bool {
	return m.threshold.Close(estimated, current)
}

func newMean(values ...float64) *meanEstimator {
	return &meanEstimator{values: values, threshold: Threshold{Epsilon: 1e-9, Mode: format.ThresholdAbsolute}}
}

func TestEngineConverges(t *testing.T) {
	nan := math.NaN()
	est := newMean(1, 2, 3, nan, nan)
	metrics := &BasicMetricsCollector{}

	var seen []Progress[float64]
	engine, err := New[float64, []float64](est, WithMetrics(metrics))
	require.NoError(t, err)
	engine.Observe(ObserverFunc[float64](func(p Progress[float64]) {
		seen = append(seen, p)
	}))

	res, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateConverged, res.State)
	require.True(t, res.HasParameter)
	require.InDelta(t, 2.0, res.Parameter, 1e-8)
	require.Greater(t, res.Iterations, 1)

	require.Len(t, seen, res.Iterations)
	require.Equal(t, StateConverged, seen[len(seen)-1].State)
	for i, p := range seen[:len(seen)-1] {
		require.Equal(t, i+1, p.Iteration)
		require.Equal(t, StateIterating, p.State)
	}

	stats := metrics.GetStats()
	require.Equal(t, int64(res.Iterations), stats.Iterations)
	require.Equal(t, int64(1), stats.Runs)
	require.Equal(t, int64(1), stats.Converged)
}

func TestEngineMaxIterations(t *testing.T) {
	nan := math.NaN()
	est := newMean(1, 2, 3, nan, nan)

	res, err := mustEngine(t, est, WithMaxIterations(3)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateMaxIterations, res.State)
	require.Equal(t, 3, res.Iterations)
	require.Equal(t, 3, est.calls)

	res, err = mustEngine(t, newMean(1, nan), WithMaxIterations(0)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateMaxIterations, res.State)
	require.Equal(t, 0, res.Iterations)
	require.True(t, res.HasParameter)
}

func TestEngineStalledKeepsLastParameter(t *testing.T) {
	nan := math.NaN()
	est := newMean(4, nan)
	est.stallAt = 3

	res, err := mustEngine(t, est).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateStalled, res.State)
	require.Equal(t, 2, res.Iterations)
	// 0 -> 2 -> 3
	require.InDelta(t, 3.0, res.Parameter, 1e-12)
}

func TestEngineInitFailure(t *testing.T) {
	res, err := mustEngine(t, newMean(math.NaN())).Run(context.Background())
	require.ErrorIs(t, err, errs.ErrInsufficientData)
	require.Equal(t, StateFailed, res.State)
	require.False(t, res.HasParameter)
}

func TestEngineCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := mustEngine(t, newMean(1)).Run(ctx)
	require.ErrorIs(t, err, errs.ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StateCancelled, res.State)
	require.False(t, res.HasParameter)
}

func TestEngineStop(t *testing.T) {
	nan := math.NaN()
	ctrl := NewController()
	est := newMean(1, 2, 3, nan, nan)
	est.threshold.Epsilon = 0
	est.onStep = func(iteration int) {
		if iteration == 2 {
			ctrl.Stop()
		}
	}

	res, err := mustEngine(t, est, WithController(ctrl)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateCancelled, res.State)
	require.Equal(t, 2, res.Iterations)
	require.True(t, res.HasParameter)
	require.True(t, ctrl.Stopped())
}

func TestEnginePauseResume(t *testing.T) {
	nan := math.NaN()
	ctrl := NewController()
	paused := make(chan struct{})
	est := newMean(1, 2, 3, nan, nan)
	est.onStep = func(iteration int) {
		if iteration == 1 {
			ctrl.Pause()
			close(paused)
		}
	}

	engine := mustEngine(t, est, WithController(ctrl))

	var (
		res Result[float64]
		err error
		wg  sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err = engine.Run(context.Background())
	}()

	<-paused
	require.True(t, ctrl.Paused())
	time.Sleep(20 * time.Millisecond)
	ctrl.Resume()
	wg.Wait()

	require.NoError(t, err)
	require.Equal(t, StateConverged, res.State)
}

func TestControllerWaitHonoursContext(t *testing.T) {
	ctrl := NewController()
	ctrl.Pause()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := ctrl.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	ctrl.Stop()
	require.ErrorIs(t, ctrl.Wait(context.Background()), errs.ErrCancelled)
}

func TestEngineLogs(t *testing.T) {
	var sb strings.Builder
	logger := slog.New(slog.NewTextHandler(&sb, &slog.HandlerOptions{Level: slog.LevelDebug}))
	nan := math.NaN()

	_, err := mustEngine(t, newMean(1, nan), WithLogger(logger)).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, sb.String(), "em iteration")
	assert.Contains(t, sb.String(), "em progress")
	assert.Contains(t, sb.String(), "state=converged")
}

func TestConfigOptions(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
	require.Equal(t, DefaultThreshold, cfg.Threshold)
	require.NotNil(t, cfg.Logger)
	require.NotNil(t, cfg.Metrics)

	cfg, err = NewConfig(WithMaxIterations(5), WithThreshold(0.1, format.ThresholdRatio), WithProgressInterval(0))
	require.NoError(t, err)
	require.Equal(t, 5, cfg.MaxIterations)
	require.Equal(t, Threshold{Epsilon: 0.1, Mode: format.ThresholdRatio}, cfg.Threshold)

	for name, opt := range map[string]Option{
		"negative iterations": WithMaxIterations(-1),
		"negative epsilon":    WithThreshold(-1, format.ThresholdAbsolute),
		"nan epsilon":         WithThreshold(math.NaN(), format.ThresholdAbsolute),
		"bad mode":            WithThreshold(1, format.ThresholdMode(9)),
		"negative interval":   WithProgressInterval(-time.Second),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewConfig(opt)
			require.Error(t, err)
		})
	}
}

func TestThreshold(t *testing.T) {
	abs := Threshold{Epsilon: 0.1, Mode: format.ThresholdAbsolute}
	ratio := Threshold{Epsilon: 0.1, Mode: format.ThresholdRatio}

	assert.True(t, abs.Close(1.05, 1))
	assert.False(t, abs.Close(1.2, 1))
	assert.True(t, ratio.Close(105, 100))
	assert.False(t, ratio.Close(120, 100))
	assert.True(t, ratio.Close(0.05, 0), "zero reference falls back to absolute")

	assert.True(t, abs.CloseAll([]float64{1, 2}, []float64{1.01, 2.01}))
	assert.False(t, abs.CloseAll([]float64{1, 2}, []float64{1, 3}))
	assert.False(t, abs.CloseAll([]float64{1}, []float64{1, 2}))

	one, other := 1.0, 1.05
	assert.True(t, abs.CloseOptional(nil, nil))
	assert.False(t, abs.CloseOptional(&one, nil))
	assert.False(t, abs.CloseOptional(nil, &one))
	assert.True(t, abs.CloseOptional(&one, &other))

	assert.True(t, abs.Improved(1.2, 1))
	assert.False(t, abs.Improved(1.05, 1))
	assert.False(t, abs.Improved(0.5, 1))
	assert.True(t, ratio.Improved(-80, -100))
	assert.False(t, ratio.Improved(-95, -100))

	assert.InDelta(t, 0.2, abs.MaxChange([]float64{1, 2}, []float64{1.1, 2.2}), 1e-12)
	assert.True(t, math.IsInf(abs.MaxChange([]float64{1}, nil), 1))
}

func TestStateString(t *testing.T) {
	require.Equal(t, "converged", StateConverged.String())
	require.Equal(t, "max_iterations", StateMaxIterations.String())
	require.Equal(t, "unknown", State(99).String())
	require.False(t, StateIterating.Done())
	require.True(t, StateStalled.Done())
}

func TestCheckpointWrapsContextError(t *testing.T) {
	engine := mustEngine(t, newMean(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := engine.checkpoint(ctx)
	require.True(t, errors.Is(err, errs.ErrCancelled))
	require.True(t, errors.Is(err, context.Canceled))
}

func mustEngine(t *testing.T, est *meanEstimator, opts ...Option) *Engine[float64, []float64] {
	t.Helper()
	engine, err := New[float64, []float64](est, opts...)
	require.NoError(t, err)

	return engine
}
