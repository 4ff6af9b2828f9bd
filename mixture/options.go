package mixture

import (
	"fmt"
	"math"

	"github.com/arloliu/emreg/em"
	"github.com/arloliu/emreg/format"
	"github.com/arloliu/emreg/internal/options"
	"github.com/arloliu/emreg/regression"
)

// DefaultMaxComponents is the component limit used when none is configured.
const DefaultMaxComponents = 10

// Config holds the configuration of a mixture order selection.
type Config struct {
	// MaxComponents bounds the number of components. Zero means unbounded.
	MaxComponents int
	// Improvement is the fitness gain a larger mixture must achieve to be accepted.
	Improvement em.Threshold
	// MinVariance floors the residual variance of every component.
	MinVariance float64
	// Regression configures the component fits: indices, loop balancing,
	// parallelism and the EM engine. Its Prior is ignored.
	Regression regression.Config
}

// DefaultConfig returns the default configuration.
//
// Defaults:
//   - MaxComponents: 10
//   - Improvement: ratio threshold 1e-3
//   - MinVariance: 1e-9
//   - Regression: regression.DefaultConfig
func DefaultConfig() Config {
	return Config{
		MaxComponents: DefaultMaxComponents,
		Improvement:   em.Threshold{Epsilon: 1e-3, Mode: format.ThresholdRatio},
		MinVariance:   1e-9,
		Regression:    regression.DefaultConfig(),
	}
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

// NewConfig builds a Config from the defaults and opts.
func NewConfig(opts ...Option) (Config, error) {
	return options.Build(DefaultConfig(), opts...)
}

// WithMaxComponents sets the component limit. Zero removes the limit.
func WithMaxComponents(n int) Option {
	return options.New(func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("max components must be non-negative, got %d", n)
		}
		c.MaxComponents = n

		return nil
	})
}

// WithImprovement sets the fitness gain required to accept another component.
func WithImprovement(epsilon float64, mode format.ThresholdMode) Option {
	return options.New(func(c *Config) error {
		t := em.Threshold{Epsilon: epsilon, Mode: mode}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("improvement: %w", err)
		}
		c.Improvement = t

		return nil
	})
}

// WithMinVariance sets the residual variance floor.
func WithMinVariance(v float64) Option {
	return options.New(func(c *Config) error {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("min variance must be a finite positive number, got %g", v)
		}
		c.MinVariance = v

		return nil
	})
}

// WithRegressionOptions applies regression options to the component configuration.
func WithRegressionOptions(opts ...regression.Option) Option {
	return options.New(func(c *Config) error {
		return options.Apply(&c.Regression, opts...)
	})
}
