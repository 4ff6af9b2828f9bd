package dataset

import (
	"fmt"

	"github.com/arloliu/emreg/errs"
)

// Sample is a restartable, forward-only cursor over profiles.
//
// Implementations are not safe for concurrent use; a fit owns its sample for
// the duration of the design extraction.
type Sample interface {
	// Next advances to the next profile and reports whether one is available.
	Next() bool
	// Pick returns the current profile. It is only valid after Next returned true.
	Pick() *Profile
	// Reset rewinds the cursor to the first profile.
	Reset() error
	// Close releases the sample. Next returns false afterwards.
	Close() error
	// Schema returns the schema shared by all profiles.
	Schema() *Schema
}

// MemorySample is an in-memory Sample.
type MemorySample struct {
	schema   *Schema
	profiles []*Profile
	cursor   int
	closed   bool
}

var _ Sample = (*MemorySample)(nil)

// NewMemorySample creates a sample over profiles. Every profile must use schema.
func NewMemorySample(schema *Schema, profiles ...*Profile) (*MemorySample, error) {
	for i, p := range profiles {
		if p.Schema() != schema {
			return nil, fmt.Errorf("profile %d: %w", i, errs.ErrRowLength)
		}
	}

	return &MemorySample{schema: schema, profiles: profiles, cursor: -1}, nil
}

// FromFloats builds a sample from rows of values. NaN entries become missing fields.
func FromFloats(schema *Schema, rows [][]float64) (*MemorySample, error) {
	profiles := make([]*Profile, len(rows))
	for i, row := range rows {
		p, err := ProfileOf(schema, row...)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		profiles[i] = p
	}

	return NewMemorySample(schema, profiles...)
}

// Add appends a profile. It must share the sample's schema.
func (s *MemorySample) Add(p *Profile) error {
	if p.Schema() != s.schema {
		return errs.ErrRowLength
	}
	s.profiles = append(s.profiles, p)

	return nil
}

// Len returns the number of profiles.
func (s *MemorySample) Len() int {
	return len(s.profiles)
}

// Profile returns the profile at position i.
func (s *MemorySample) Profile(i int) *Profile {
	return s.profiles[i]
}

func (s *MemorySample) Next() bool {
	if s.closed || s.cursor+1 >= len(s.profiles) {
		s.cursor = len(s.profiles)
		return false
	}
	s.cursor++

	return true
}

func (s *MemorySample) Pick() *Profile {
	if s.cursor < 0 || s.cursor >= len(s.profiles) {
		return nil
	}

	return s.profiles[s.cursor]
}

func (s *MemorySample) Reset() error {
	if s.closed {
		return errs.ErrSampleClosed
	}
	s.cursor = -1

	return nil
}

func (s *MemorySample) Close() error {
	s.closed = true
	return nil
}

func (s *MemorySample) Schema() *Schema {
	return s.schema
}
