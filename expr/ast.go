package expr

import (
	"math"
	"strconv"
	"strings"
)

// node is one element of a compiled expression tree.
type node interface {
	eval(env Env) (float64, bool)
	write(sb *strings.Builder)
	fields(seen map[string]struct{}, out []string) []string
}

type numberNode struct{ v float64 }

func (n numberNode) eval(Env) (float64, bool) { return n.v, true }

func (n numberNode) write(sb *strings.Builder) {
	sb.WriteString(strconv.FormatFloat(n.v, 'g', -1, 64))
}

func (numberNode) fields(_ map[string]struct{}, out []string) []string { return out }

type fieldNode struct{ name string }

func (n fieldNode) eval(env Env) (float64, bool) { return env.Lookup(n.name) }

func (n fieldNode) write(sb *strings.Builder) {
	sb.WriteRune(FieldMarker)
	sb.WriteString(n.name)
}

func (n fieldNode) fields(seen map[string]struct{}, out []string) []string {
	if _, ok := seen[n.name]; ok {
		return out
	}
	seen[n.name] = struct{}{}

	return append(out, n.name)
}

type negNode struct{ x node }

func (n negNode) eval(env Env) (float64, bool) {
	v, ok := n.x.eval(env)
	return -v, ok
}

func (n negNode) write(sb *strings.Builder) {
	sb.WriteString("-")
	n.x.write(sb)
}

func (n negNode) fields(seen map[string]struct{}, out []string) []string {
	return n.x.fields(seen, out)
}

type binaryNode struct {
	op   byte
	l, r node
}

func (n binaryNode) eval(env Env) (float64, bool) {
	l, ok := n.l.eval(env)
	if !ok {
		return 0, false
	}
	r, ok := n.r.eval(env)
	if !ok {
		return 0, false
	}

	var v float64
	switch n.op {
	case '+':
		v = l + r
	case '-':
		v = l - r
	case '*':
		v = l * r
	case '/':
		v = l / r
	case '^':
		v = math.Pow(l, r)
	}

	return v, finite(v)
}

func (n binaryNode) write(sb *strings.Builder) {
	sb.WriteByte('(')
	n.l.write(sb)
	sb.WriteByte(' ')
	sb.WriteByte(n.op)
	sb.WriteByte(' ')
	n.r.write(sb)
	sb.WriteByte(')')
}

func (n binaryNode) fields(seen map[string]struct{}, out []string) []string {
	return n.r.fields(seen, n.l.fields(seen, out))
}

type callNode struct {
	name string
	fn   func(float64) float64
	arg  node
}

func (n callNode) eval(env Env) (float64, bool) {
	a, ok := n.arg.eval(env)
	if !ok {
		return 0, false
	}
	v := n.fn(a)

	return v, finite(v)
}

func (n callNode) write(sb *strings.Builder) {
	sb.WriteString(n.name)
	sb.WriteByte('(')
	n.arg.write(sb)
	sb.WriteByte(')')
}

func (n callNode) fields(seen map[string]struct{}, out []string) []string {
	return n.arg.fields(seen, out)
}

var functions = map[string]func(float64) float64{
	"log":   math.Log,
	"ln":    math.Log,
	"log10": math.Log10,
	"exp":   math.Exp,
	"sqrt":  math.Sqrt,
	"abs":   math.Abs,
	"sin":   math.Sin,
	"cos":   math.Cos,
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
