// Package metrics exports fit metrics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/emreg/em"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "emreg"

// PrometheusCollector implements em.MetricsCollector with Prometheus metrics:
//
//	<ns>_iteration_duration_seconds  histogram of EM iteration durations
//	<ns>_runs_total{state}           finished runs by final state
//	<ns>_run_iterations              histogram of iterations per run
//	<ns>_run_duration_seconds        histogram of run durations
//	<ns>_rows_total{outcome}         expectation rows, "kept" or "dropped"
//	<ns>_solves_total{method,status} linear solves by winning method
type PrometheusCollector struct {
	iterationLatency prometheus.Histogram
	runs             *prometheus.CounterVec
	runIterations    prometheus.Histogram
	runLatency       prometheus.Histogram
	rows             *prometheus.CounterVec
	solves           *prometheus.CounterVec
}

var _ em.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the metrics under namespace and registers
// them with reg. An empty namespace uses DefaultNamespace; a nil reg uses
// prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer, namespace string) (*PrometheusCollector, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		iterationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "iteration_duration_seconds",
			Help:      "Duration of EM iterations",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished EM runs by final state",
		}, []string{"state"}),
		runIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_iterations",
			Help:      "Iterations per EM run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
		}),
		runLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of EM runs",
			Buckets:   prometheus.DefBuckets,
		}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Rows seen by expectation steps",
		}, []string{"outcome"}),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Linear solves by winning method",
		}, []string{"method", "status"}),
	}

	for _, col := range []prometheus.Collector{c.iterationLatency, c.runs, c.runIterations, c.runLatency, c.rows, c.solves} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordIteration implements em.MetricsCollector.
func (c *PrometheusCollector) RecordIteration(d time.Duration) {
	c.iterationLatency.Observe(d.Seconds())
}

// RecordRun implements em.MetricsCollector.
func (c *PrometheusCollector) RecordRun(state em.State, iterations int, d time.Duration) {
	c.runs.WithLabelValues(state.String()).Inc()
	c.runIterations.Observe(float64(iterations))
	c.runLatency.Observe(d.Seconds())
}

// RecordRows implements em.MetricsCollector.
func (c *PrometheusCollector) RecordRows(kept, dropped int) {
	c.rows.WithLabelValues("kept").Add(float64(kept))
	c.rows.WithLabelValues("dropped").Add(float64(dropped))
}

// RecordSolve implements em.MetricsCollector.
func (c *PrometheusCollector) RecordSolve(method string, ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	c.solves.WithLabelValues(method, status).Inc()
}
