package dataset

import (
	"fmt"

	"github.com/arloliu/emreg/internal/collision"
	"github.com/arloliu/emreg/internal/hash"
)

// FieldType is the declared type of a profile field.
type FieldType uint8

const (
	// FieldReal is a continuous numeric field.
	FieldReal FieldType = iota
	// FieldInteger is a discrete numeric field.
	FieldInteger
	// FieldNominal is a categorical field encoded as a number.
	FieldNominal
)

func (t FieldType) String() string {
	switch t {
	case FieldReal:
		return "real"
	case FieldInteger:
		return "integer"
	case FieldNominal:
		return "nominal"
	default:
		return "unknown"
	}
}

// Attribute describes one field of a schema.
type Attribute struct {
	Name string
	Type FieldType
}

// Schema is the ordered, immutable list of attributes shared by the profiles of a sample.
type Schema struct {
	attrs   []Attribute
	tracker *collision.Tracker
}

// NewSchema creates a schema from attrs. Field names must be non-empty and unique.
func NewSchema(attrs ...Attribute) (*Schema, error) {
	tracker := collision.NewTracker(len(attrs))
	for _, a := range attrs {
		if err := tracker.Track(a.Name, hash.ID(a.Name)); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
	}

	return &Schema{attrs: append([]Attribute(nil), attrs...), tracker: tracker}, nil
}

// RealSchema creates a schema of real-valued fields with the given names.
func RealSchema(names ...string) (*Schema, error) {
	attrs := make([]Attribute, len(names))
	for i, n := range names {
		attrs[i] = Attribute{Name: n, Type: FieldReal}
	}

	return NewSchema(attrs...)
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.attrs)
}

// Attr returns the attribute at position i.
func (s *Schema) Attr(i int) Attribute {
	return s.attrs[i]
}

// Names returns the field names in order.
func (s *Schema) Names() []string {
	return s.tracker.Names()
}

// IndexOf returns the position of the named field, or -1.
func (s *Schema) IndexOf(name string) int {
	return s.tracker.Lookup(name, hash.ID(name))
}
