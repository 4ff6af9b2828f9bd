package regression

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/arloliu/emreg/em"
	"github.com/arloliu/emreg/format"
	"github.com/arloliu/emreg/indices"
	"github.com/arloliu/emreg/internal/options"
)

// Config holds the configuration of a missing-data regression fit.
type Config struct {
	// Indices is the index specification, see package indices. Empty selects
	// every field but the last as regressor and the last as response.
	Indices string
	// LoopBalance enables the fixed-point refinement of rows with two or more
	// missing cells.
	LoopBalance bool
	// Parallelism is the number of goroutines used by the expectation step.
	Parallelism int
	// Prior, when set, replaces the computed initial parameter.
	Prior *Parameter
	// Engine configures the EM loop: iteration limit, threshold, logging,
	// metrics and controller.
	Engine em.Config
	// Observers receive per-iteration progress.
	Observers []em.Observer[*Parameter]
}

// DefaultConfig returns the default configuration.
//
// Defaults:
//   - Indices: "" (all but the last field are regressors)
//   - LoopBalance: false
//   - Parallelism: 1
//   - Engine: em.DefaultConfig (1000 iterations, absolute threshold 1e-3)
func DefaultConfig() Config {
	return Config{
		Parallelism: 1,
		Engine:      em.DefaultConfig(),
	}
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

// NewConfig builds a Config from the defaults and opts.
func NewConfig(opts ...Option) (Config, error) {
	return options.Build(DefaultConfig(), opts...)
}

// WithIndices sets the index specification. It is parsed eagerly so that a
// malformed specification fails at configuration time.
func WithIndices(spec string) Option {
	return options.New(func(c *Config) error {
		if spec != "" {
			if _, err := indices.Parse(spec); err != nil {
				return err
			}
		}
		c.Indices = spec

		return nil
	})
}

// WithLoopBalance enables or disables loop balancing.
func WithLoopBalance(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.LoopBalance = enabled
	})
}

// WithParallelism sets the number of expectation workers. Zero uses GOMAXPROCS.
func WithParallelism(n int) Option {
	return options.New(func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("parallelism must be non-negative, got %d", n)
		}
		if n == 0 {
			n = runtime.GOMAXPROCS(0)
		}
		c.Parallelism = n

		return nil
	})
}

// WithPrior starts the fit from p instead of the computed initial parameter.
func WithPrior(p *Parameter) Option {
	return options.New(func(c *Config) error {
		if p != nil {
			if err := p.Validate(); err != nil {
				return fmt.Errorf("prior: %w", err)
			}
		}
		c.Prior = p.Clone()

		return nil
	})
}

// WithMaxIterations sets the EM iteration limit. It also bounds loop balancing.
func WithMaxIterations(n int) Option {
	return engineOption(em.WithMaxIterations(n))
}

// WithThreshold sets the convergence threshold.
func WithThreshold(epsilon float64, mode format.ThresholdMode) Option {
	return engineOption(em.WithThreshold(epsilon, mode))
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return engineOption(em.WithLogger(logger))
}

// WithMetrics sets the metrics collector.
func WithMetrics(m em.MetricsCollector) Option {
	return engineOption(em.WithMetrics(m))
}

// WithController attaches a pause/resume/stop controller.
func WithController(ctrl *em.Controller) Option {
	return engineOption(em.WithController(ctrl))
}

// WithEngineOptions applies em options to the engine configuration.
func WithEngineOptions(opts ...em.Option) Option {
	return engineOption(opts...)
}

// WithObserver registers a progress observer.
func WithObserver(o em.Observer[*Parameter]) Option {
	return options.NoError(func(c *Config) {
		c.Observers = append(c.Observers, o)
	})
}

func engineOption(opts ...em.Option) Option {
	return options.New(func(c *Config) error {
		return options.Apply(&c.Engine, opts...)
	})
}
