package em

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arloliu/emreg/format"
	"github.com/arloliu/emreg/internal/options"
)

// DefaultMaxIterations is the iteration limit used when none is configured.
const DefaultMaxIterations = 1000

// Config controls a run.
type Config struct {
	// MaxIterations caps the number of EM iterations. Zero returns the initial parameter.
	MaxIterations int
	// Threshold is handed to estimators for their convergence test.
	Threshold Threshold
	// ProgressInterval is the minimum time between info-level progress records.
	ProgressInterval time.Duration
	// Logger receives run logs. Nil discards.
	Logger *slog.Logger
	// Metrics receives run metrics. Nil discards.
	Metrics MetricsCollector
	// Controller pauses or stops the run. Nil means uncontrolled.
	Controller *Controller
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations:    DefaultMaxIterations,
		Threshold:        DefaultThreshold,
		ProgressInterval: time.Second,
	}
}

// Option configures a Config.
type Option = options.Option[*Config]

// NewConfig builds a Config from the defaults and opts.
func NewConfig(opts ...Option) (Config, error) {
	cfg, err := options.Build(DefaultConfig(), opts...)
	if err != nil {
		return Config{}, err
	}

	return cfg.Normalize(), nil
}

// Normalize replaces nil collaborators with no-op implementations.
func (c Config) Normalize() Config {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Metrics == nil {
		c.Metrics = NoopMetricsCollector{}
	}

	return c
}

// WithMaxIterations sets the iteration limit.
func WithMaxIterations(n int) Option {
	return options.New(func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("max iterations must be non-negative, got %d", n)
		}
		c.MaxIterations = n

		return nil
	})
}

// WithThreshold sets the convergence threshold.
func WithThreshold(epsilon float64, mode format.ThresholdMode) Option {
	return options.New(func(c *Config) error {
		t := Threshold{Epsilon: epsilon, Mode: mode}
		if err := t.Validate(); err != nil {
			return err
		}
		c.Threshold = t

		return nil
	})
}

// WithProgressInterval sets the minimum time between info-level progress logs.
func WithProgressInterval(d time.Duration) Option {
	return options.New(func(c *Config) error {
		if d < 0 {
			return errors.New("progress interval must be non-negative")
		}
		c.ProgressInterval = d

		return nil
	})
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *Config) {
		c.Logger = logger
	})
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return options.NoError(func(c *Config) {
		c.Metrics = m
	})
}

// WithController attaches a controller.
func WithController(ctrl *Controller) Option {
	return options.NoError(func(c *Config) {
		c.Controller = ctrl
	})
}
