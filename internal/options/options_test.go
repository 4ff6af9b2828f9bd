package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Epsilon float64
	Name    string
	Calls   []string
}

func withEpsilon(v float64) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if v <= 0 {
			return errors.New("epsilon must be positive")
		}
		c.Epsilon = v
		c.Calls = append(c.Calls, "epsilon")

		return nil
	})
}

func withName(name string) Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.Name = name
		c.Calls = append(c.Calls, "name")
	})
}

func TestApply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withName("a"), withEpsilon(0.5), withName("b"))

		require.NoError(t, err)
		require.Equal(t, "b", cfg.Name)
		require.Equal(t, 0.5, cfg.Epsilon)
		require.Equal(t, []string{"name", "epsilon", "name"}, cfg.Calls)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withEpsilon(-1), withName("never"))

		require.Error(t, err)
		require.Empty(t, cfg.Name)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg, nil, withName("x")))
		require.Equal(t, "x", cfg.Name)
	})
}

func TestJoin(t *testing.T) {
	cfg := &testConfig{}
	err := Apply(cfg, Join(withName("joined"), withEpsilon(0.1)))

	require.NoError(t, err)
	require.Equal(t, "joined", cfg.Name)
	require.Equal(t, 0.1, cfg.Epsilon)

	err = Apply(cfg, Join(withEpsilon(0)))
	require.Error(t, err)
}

func TestBuild(t *testing.T) {
	defaults := testConfig{Epsilon: 1, Name: "default"}

	cfg, err := Build(defaults, withName("custom"))
	require.NoError(t, err)
	require.Equal(t, "custom", cfg.Name)
	require.Equal(t, 1.0, cfg.Epsilon)
	require.Equal(t, "default", defaults.Name, "defaults must not be modified")

	_, err = Build(defaults, withEpsilon(-3))
	require.Error(t, err)
}
