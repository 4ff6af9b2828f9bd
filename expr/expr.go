// Package expr compiles small arithmetic expressions over named fields.
//
// Fields are written with the '#' marker, for example "#height^2" or
// "log(#dose) * #weight". Supported are number literals, the binary operators
// + - * / ^, unary minus, parentheses and the functions log, ln, log10, exp,
// sqrt, abs, sin and cos.
//
// Evaluation never produces NaN or infinity: a missing field or a non-finite
// intermediate result reports the value as unavailable.
package expr

import (
	"strings"

	"github.com/arloliu/emreg/errs"
)

// Env resolves field names during evaluation.
type Env interface {
	// Lookup returns the value of the named field and whether it is available.
	Lookup(name string) (float64, bool)
}

// MapEnv is an Env backed by a map. Absent keys are unavailable.
type MapEnv map[string]float64

func (m MapEnv) Lookup(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}

// EnvFunc adapts a function to Env.
type EnvFunc func(name string) (float64, bool)

func (f EnvFunc) Lookup(name string) (float64, bool) { return f(name) }

// Expr is a compiled expression. It is immutable and safe for concurrent use.
type Expr struct {
	root   node
	source string
	fields []string
}

// Compile parses input into an Expr. Errors match errs.ErrParse.
func Compile(input string) (*Expr, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}

	p := &parser{input: input, tokens: tokens}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, errs.NewParseError(input, t.pos, "unexpected %q after expression", t.text)
	}

	return &Expr{
		root:   root,
		source: strings.TrimSpace(input),
		fields: root.fields(make(map[string]struct{}), nil),
	}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level variables.
func MustCompile(input string) *Expr {
	e, err := Compile(input)
	if err != nil {
		panic(err)
	}

	return e
}

// Eval evaluates the expression. The result is unavailable when a referenced
// field is unavailable or the arithmetic is not finite.
func (e *Expr) Eval(env Env) (float64, bool) {
	return e.root.eval(env)
}

// Fields returns the referenced field names in order of first appearance.
func (e *Expr) Fields() []string {
	return append([]string(nil), e.fields...)
}

// Source returns the trimmed text the expression was compiled from.
func (e *Expr) Source() string {
	return e.source
}

// String returns a fully parenthesized rendering of the expression.
func (e *Expr) String() string {
	var sb strings.Builder
	e.root.write(&sb)

	return sb.String()
}
