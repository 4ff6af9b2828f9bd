// Package errs defines the error values shared by emreg packages.
//
// Numerical failures (singular systems, non-finite results) are absorbed inside
// the solver cascade and the estimator fallbacks. The errors that reach callers
// of Learn and Select are ErrParse, ErrInsufficientData and ErrCancelled, always
// wrapped together with ErrNoModel.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrParse indicates a malformed index specification.
	ErrParse = errors.New("malformed index specification")
	// ErrInsufficientData indicates the sample cannot support a fit.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrSingularSystem indicates a linear system with no unique solution.
	ErrSingularSystem = errors.New("singular linear system")
	// ErrNumericInvalid indicates a NaN, infinite or unused value in a solved result.
	ErrNumericInvalid = errors.New("invalid numeric result")
	// ErrNoModel indicates a fit that produced no usable parameter.
	ErrNoModel = errors.New("no model")
	// ErrCancelled indicates a fit stopped through its controller.
	ErrCancelled = errors.New("fit cancelled")

	// ErrSampleClosed is returned when a closed sample is reset.
	ErrSampleClosed = errors.New("sample is closed")
	// ErrInvalidFieldName is returned for empty field names.
	ErrInvalidFieldName = errors.New("invalid field name")
	// ErrDuplicateField is returned when a schema declares the same field twice.
	ErrDuplicateField = errors.New("duplicate field")
	// ErrRowLength is returned when a row does not match its schema.
	ErrRowLength = errors.New("row length does not match schema")

	// ErrInvalidHeaderSize is returned when an export frame header is truncated.
	ErrInvalidHeaderSize = errors.New("invalid export header size")
	// ErrInvalidMagic is returned when an export frame does not start with the frame magic.
	ErrInvalidMagic = errors.New("invalid export magic number")
	// ErrInvalidCompression is returned for an unknown compression type.
	ErrInvalidCompression = errors.New("invalid compression type")
	// ErrPayloadSize is returned when a decoded payload does not match its header.
	ErrPayloadSize = errors.New("export payload size mismatch")
)

// ParseError describes where an index specification or expression failed to parse.
//
// ParseError always matches ErrParse through errors.Is.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
	cause error
}

// NewParseError creates a ParseError at byte offset pos of input.
func NewParseError(input string, pos int, format string, args ...any) *ParseError {
	return &ParseError{Input: input, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// WithCause attaches an underlying error.
func (e *ParseError) WithCause(err error) *ParseError {
	e.cause = err
	return e
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q at %d: %s", e.Input, e.Pos, e.Msg)
}

// Is makes every ParseError match ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error { return e.cause }

// NoModel wraps cause so that the result matches both ErrNoModel and cause.
func NoModel(cause error) error {
	if cause == nil {
		return ErrNoModel
	}

	return fmt.Errorf("%w: %w", ErrNoModel, cause)
}
