package collision

import (
	"fmt"

	"github.com/arloliu/emreg/errs"
)

// Tracker records field names of a schema by hash and detects hash collisions.
//
// Lookups go through the hash map while no collision has been observed. Once two
// distinct names share a hash, HasCollision reports true and callers must fall
// back to comparing names.
type Tracker struct {
	byHash       map[uint64]int // hash → position of the first name with that hash
	names        []string
	hasCollision bool
}

// NewTracker creates an empty tracker with room for n names.
func NewTracker(n int) *Tracker {
	return &Tracker{
		byHash: make(map[uint64]int, n),
		names:  make([]string, 0, n),
	}
}

// Track registers name at the next position.
//
// Returns errs.ErrInvalidFieldName for empty names and errs.ErrDuplicateField
// when the same name is registered twice. A different name with an equal hash is
// not an error; it only sets the collision flag.
func (t *Tracker) Track(name string, hash uint64) error {
	if name == "" {
		return errs.ErrInvalidFieldName
	}

	pos, exists := t.byHash[hash]
	if exists {
		if t.names[pos] == name {
			return fmt.Errorf("%w: %q", errs.ErrDuplicateField, name)
		}
		t.hasCollision = true
	}
	if t.hasCollision {
		for _, n := range t.names {
			if n == name {
				return fmt.Errorf("%w: %q", errs.ErrDuplicateField, name)
			}
		}
	}
	if !exists {
		t.byHash[hash] = len(t.names)
	}
	t.names = append(t.names, name)

	return nil
}

// Lookup returns the position of name, or -1.
func (t *Tracker) Lookup(name string, hash uint64) int {
	if !t.hasCollision {
		pos, ok := t.byHash[hash]
		if !ok || t.names[pos] != name {
			return -1
		}

		return pos
	}

	for i, n := range t.names {
		if n == name {
			return i
		}
	}

	return -1
}

// HasCollision returns true if two names share a hash.
func (t *Tracker) HasCollision() bool {
	return t.hasCollision
}

// Names returns the tracked names in registration order.
func (t *Tracker) Names() []string {
	return t.names
}

// Count returns the number of tracked names.
func (t *Tracker) Count() int {
	return len(t.names)
}
