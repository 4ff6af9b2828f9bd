package dataset

import (
	"fmt"
	"math"

	"github.com/arloliu/emreg/errs"
)

// Profile is one record of a sample.
type Profile struct {
	schema  *Schema
	values  []float64
	missing []bool
}

// NewProfile creates a profile for schema with every field missing.
func NewProfile(schema *Schema) *Profile {
	n := schema.Len()
	missing := make([]bool, n)
	for i := range missing {
		missing[i] = true
	}

	return &Profile{schema: schema, values: make([]float64, n), missing: missing}
}

// ProfileOf creates a profile from values. NaN entries become missing fields.
func ProfileOf(schema *Schema, values ...float64) (*Profile, error) {
	if len(values) != schema.Len() {
		return nil, fmt.Errorf("%w: got %d values for %d fields", errs.ErrRowLength, len(values), schema.Len())
	}

	p := NewProfile(schema)
	for i, v := range values {
		if !math.IsNaN(v) {
			p.Set(i, v)
		}
	}

	return p, nil
}

// Schema returns the profile's schema.
func (p *Profile) Schema() *Schema {
	return p.schema
}

// Len returns the number of fields.
func (p *Profile) Len() int {
	return len(p.values)
}

// Set stores an observed value at position i.
func (p *Profile) Set(i int, v float64) {
	p.values[i] = v
	p.missing[i] = false
}

// Unset marks position i as missing.
func (p *Profile) Unset(i int) {
	p.values[i] = 0
	p.missing[i] = true
}

// IsMissing reports whether the field at position i is missing.
// Positions outside the schema are reported as missing.
func (p *Profile) IsMissing(i int) bool {
	if i < 0 || i >= len(p.missing) {
		return true
	}

	return p.missing[i]
}

// Value returns the field at position i and whether it is observed.
func (p *Profile) Value(i int) (float64, bool) {
	if p.IsMissing(i) {
		return 0, false
	}

	return p.values[i], true
}

// ValueOf returns the named field and whether it is observed.
func (p *Profile) ValueOf(name string) (float64, bool) {
	return p.Value(p.schema.IndexOf(name))
}

// MissingCount returns the number of missing fields.
func (p *Profile) MissingCount() int {
	n := 0
	for _, m := range p.missing {
		if m {
			n++
		}
	}

	return n
}

// Clone returns a deep copy of the profile sharing the same schema.
func (p *Profile) Clone() *Profile {
	return &Profile{
		schema:  p.schema,
		values:  append([]float64(nil), p.values...),
		missing: append([]bool(nil), p.missing...),
	}
}
