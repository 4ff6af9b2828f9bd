package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	err := NewParseError("1, ,3", 3, "empty entry")

	require.ErrorIs(t, err, ErrParse)
	require.Contains(t, err.Error(), "empty entry")
	require.Contains(t, err.Error(), "at 3")

	cause := errors.New("boom")
	wrapped := NewParseError("x", 0, "bad").WithCause(cause)
	require.ErrorIs(t, wrapped, cause)
	require.ErrorIs(t, wrapped, ErrParse)
}

func TestNoModel(t *testing.T) {
	require.Equal(t, ErrNoModel, NoModel(nil))

	err := NoModel(ErrInsufficientData)
	require.ErrorIs(t, err, ErrNoModel)
	require.ErrorIs(t, err, ErrInsufficientData)
	require.NotErrorIs(t, err, ErrParse)
}
