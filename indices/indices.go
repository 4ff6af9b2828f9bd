// Package indices parses index specifications into regressor and response lists.
//
// A specification is either a flat comma-separated list
//
//	1, 2, #a*#b, 4
//
// or a list of brace-delimited groups
//
//	{1, 2}, {#a^2}, {4}
//
// In both forms the last entry (or group) is the response and the rest are
// regressors. Entries are 1-based field positions or expressions over field
// names written with the '#' marker (see package expr). For grouped input only
// the first element of each group takes part in the fit; all groups are kept on
// Indices.Groups.
//
// The parsed lists carry a leading constant sentinel so that position j of X
// lines up with column j of the [1, x1..xn] design matrix.
package indices

import (
	"fmt"
	"strings"

	"github.com/arloliu/emreg/dataset"
	"github.com/arloliu/emreg/errs"
)

// Indices holds the regressor list X and the response list Z.
//
// X[0] and Z[0] are the constant sentinel; Z has exactly one further entry.
type Indices struct {
	X      []Index
	Z      []Index
	Groups [][]Index
}

// New creates Indices from regressors and a response, adding the sentinels.
func New(response Index, regressors ...Index) *Indices {
	x := make([]Index, 0, len(regressors)+1)
	x = append(x, Constant())
	x = append(x, regressors...)

	groups := make([][]Index, 0, len(regressors)+1)
	for _, r := range regressors {
		groups = append(groups, []Index{r})
	}
	groups = append(groups, []Index{response})

	return &Indices{X: x, Z: []Index{Constant(), response}, Groups: groups}
}

// Default uses every field but the last as a regressor and the last as the response.
func Default(schema *dataset.Schema) (*Indices, error) {
	n := schema.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty schema", errs.ErrInsufficientData)
	}

	regressors := make([]Index, n-1)
	for i := range regressors {
		regressors[i] = Field(i)
	}

	return New(Field(n-1), regressors...), nil
}

// Response returns the response index.
func (ix *Indices) Response() Index {
	return ix.Z[1]
}

// Regressors returns the regressor indices without the sentinel.
func (ix *Indices) Regressors() []Index {
	return ix.X[1:]
}

// Select returns Indices with the same response and the regressors at the
// given design columns. Column 0 is the sentinel and is always kept.
func (ix *Indices) Select(columns []int) *Indices {
	regressors := make([]Index, 0, len(columns))
	for _, c := range columns {
		if c > 0 && c < len(ix.X) {
			regressors = append(regressors, ix.X[c])
		}
	}

	return New(ix.Response(), regressors...)
}

// Bind checks every index against schema: positions must exist and
// expressions may only reference declared fields.
func (ix *Indices) Bind(schema *dataset.Schema) error {
	check := func(idx Index) error {
		switch idx.Kind() {
		case KindField:
			if idx.pos >= schema.Len() {
				return fmt.Errorf("%w: field position %d exceeds %d fields", errs.ErrParse, idx.pos+1, schema.Len())
			}
		case KindExpr:
			for _, name := range idx.expr.Fields() {
				if schema.IndexOf(name) < 0 {
					return fmt.Errorf("%w: unknown field %q in %q", errs.ErrParse, name, idx.expr.Source())
				}
			}
		}

		return nil
	}

	for _, idx := range ix.X {
		if err := check(idx); err != nil {
			return err
		}
	}

	return check(ix.Response())
}

// Labels returns the design column labels, "1" first.
func (ix *Indices) Labels(schema *dataset.Schema) []string {
	labels := make([]string, len(ix.X))
	for i, idx := range ix.X {
		labels[i] = idx.Label(schema)
	}

	return labels
}

// String renders ix as a flat specification that Parse accepts.
func (ix *Indices) String() string {
	parts := make([]string, 0, len(ix.X))
	for _, idx := range ix.Regressors() {
		parts = append(parts, idx.String())
	}
	parts = append(parts, ix.Response().String())

	return strings.Join(parts, ", ")
}
