// Package synth generates reproducible regression samples for tests, benchmarks
// and examples.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/arloliu/emreg/dataset"
)

// Component is one linear relation z = Alpha·[1, x1..xn] + noise.
type Component struct {
	Alpha []float64
	// Weight is the relative share of rows drawn from the component.
	Weight float64
	// Noise is the standard deviation of the response noise.
	Noise float64
}

// Config describes a synthetic sample.
type Config struct {
	Rows       int
	Components []Component
	// XMean and XSpread parameterize the normal distribution of every regressor.
	XMean, XSpread float64
	// Missing is the MCAR probability per column, regressors first and the
	// response last. Shorter slices leave the remaining columns complete.
	Missing []float64
	Seed    uint64
}

// Sample is a generated sample together with its ground truth.
type Sample struct {
	*dataset.MemorySample
	// Complete holds every row before values were removed.
	Complete [][]float64
	// Labels holds the component each row was drawn from.
	Labels []int
}

// Names returns the field names of a sample with n regressors: x1..xn, z.
func Names(n int) []string {
	names := make([]string, n+1)
	for i := range n {
		names[i] = fmt.Sprintf("x%d", i+1)
	}
	names[n] = "z"

	return names
}

// Generate draws a sample from cfg.
func Generate(cfg Config) (*Sample, error) {
	if len(cfg.Components) == 0 {
		return nil, errors.New("synth: no components")
	}
	n := len(cfg.Components[0].Alpha) - 1
	for i, c := range cfg.Components {
		if len(c.Alpha) != n+1 {
			return nil, fmt.Errorf("synth: component %d has %d coefficients, want %d", i, len(c.Alpha), n+1)
		}
	}
	spread := cfg.XSpread
	if spread <= 0 {
		spread = 1
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, 0x9e3779b97f4a7c15))
	xDist := distuv.Normal{Mu: cfg.XMean, Sigma: spread, Src: rand.NewPCG(cfg.Seed, 1)}
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(cfg.Seed, 2)}

	total := 0.0
	for _, c := range cfg.Components {
		total += math.Max(c.Weight, 0)
	}

	schema, err := dataset.RealSchema(Names(n)...)
	if err != nil {
		return nil, err
	}

	out := &Sample{Complete: make([][]float64, cfg.Rows), Labels: make([]int, cfg.Rows)}
	rows := make([][]float64, cfg.Rows)
	for r := range cfg.Rows {
		k := pick(rng.Float64()*total, cfg.Components)
		c := cfg.Components[k]

		row := make([]float64, n+1)
		z := c.Alpha[0]
		for j := range n {
			row[j] = xDist.Rand()
			z += c.Alpha[j+1] * row[j]
		}
		row[n] = z + c.Noise*noise.Rand()

		out.Complete[r] = row
		out.Labels[r] = k

		masked := append([]float64(nil), row...)
		for j, p := range cfg.Missing {
			if j <= n && rng.Float64() < p {
				masked[j] = math.NaN()
			}
		}
		rows[r] = masked
	}

	out.MemorySample, err = dataset.FromFloats(schema, rows)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Linear draws a single-component sample.
func Linear(rows int, alpha []float64, noise float64, missing []float64, seed uint64) (*Sample, error) {
	return Generate(Config{
		Rows:       rows,
		Components: []Component{{Alpha: alpha, Weight: 1, Noise: noise}},
		XMean:      0,
		XSpread:    1,
		Missing:    missing,
		Seed:       seed,
	})
}

func pick(u float64, components []Component) int {
	for k, c := range components {
		w := math.Max(c.Weight, 0)
		if u < w {
			return k
		}
		u -= w
	}

	return len(components) - 1
}
