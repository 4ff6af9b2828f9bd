package indices

import (
	"strconv"

	"github.com/arloliu/emreg/dataset"
	"github.com/arloliu/emreg/expr"
)

// Kind identifies how an Index obtains its value.
type Kind uint8

const (
	// KindConstant is the implicit constant 1 at position 0 of every index list.
	KindConstant Kind = iota
	// KindField reads a field by zero-based position.
	KindField
	// KindExpr evaluates an expression over field names.
	KindExpr
)

// Index is one entry of a regressor or response list.
type Index struct {
	kind Kind
	pos  int
	expr *expr.Expr
}

// Constant returns the constant-1 sentinel.
func Constant() Index { return Index{kind: KindConstant} }

// Field returns an index reading the field at zero-based position pos.
func Field(pos int) Index { return Index{kind: KindField, pos: pos} }

// Expression returns an index evaluating e.
func Expression(e *expr.Expr) Index { return Index{kind: KindExpr, expr: e} }

// Kind returns the index kind.
func (i Index) Kind() Kind { return i.kind }

// Position returns the zero-based field position of a KindField index, or -1.
func (i Index) Position() int {
	if i.kind != KindField {
		return -1
	}

	return i.pos
}

// Expr returns the compiled expression of a KindExpr index, or nil.
func (i Index) Expr() *expr.Expr { return i.expr }

// IsConstant reports whether i is the constant sentinel.
func (i Index) IsConstant() bool { return i.kind == KindConstant }

// Value returns the value of i in p and whether it is observed.
// An expression is unobserved when any field it references is missing.
func (i Index) Value(p *dataset.Profile) (float64, bool) {
	switch i.kind {
	case KindConstant:
		return 1, true
	case KindField:
		return p.Value(i.pos)
	default:
		return i.expr.Eval(expr.EnvFunc(p.ValueOf))
	}
}

// Label returns a human-readable name for i using schema field names.
func (i Index) Label(schema *dataset.Schema) string {
	switch i.kind {
	case KindConstant:
		return "1"
	case KindField:
		if schema != nil && i.pos < schema.Len() {
			return schema.Attr(i.pos).Name
		}

		return "$" + strconv.Itoa(i.pos+1)
	default:
		return i.expr.Source()
	}
}

// String renders i in specification syntax: a 1-based position or an expression.
func (i Index) String() string {
	switch i.kind {
	case KindConstant:
		return "1"
	case KindField:
		return strconv.Itoa(i.pos + 1)
	default:
		return i.expr.Source()
	}
}
