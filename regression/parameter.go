package regression

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/emreg/format"
	"github.com/arloliu/emreg/internal/hash"
)

// Beta is the [intercept, slope] pair of one regressor relation xj = Beta[0] + Beta[1]·z.
type Beta [2]float64

// ConstantBeta is the fixed relation of the constant design column.
var ConstantBeta = Beta{1, 0}

// Parameter is the exchanged parameter of a missing-data regression.
//
// Alpha holds the coefficients of z = Alpha·[1, x1..xn]. Betas holds one
// relation per design column; Betas[0] is always ConstantBeta. Weight, Mean
// and Variance are set only on mixture components.
//
// A Parameter is immutable once published by a fit; use Clone before editing.
type Parameter struct {
	Alpha []float64
	Betas []Beta

	Weight   *float64
	Mean     *float64
	Variance *float64
}

// NewParameter creates a zero parameter for cols design columns.
func NewParameter(cols int) *Parameter {
	p := &Parameter{Alpha: make([]float64, cols), Betas: make([]Beta, cols)}
	if cols > 0 {
		p.Betas[0] = ConstantBeta
	}

	return p
}

// Cols returns the number of design columns.
func (p *Parameter) Cols() int {
	return len(p.Alpha)
}

// Clone returns a deep copy.
func (p *Parameter) Clone() *Parameter {
	if p == nil {
		return nil
	}

	return &Parameter{
		Alpha:    append([]float64(nil), p.Alpha...),
		Betas:    append([]Beta(nil), p.Betas...),
		Weight:   cloneScalar(p.Weight),
		Mean:     cloneScalar(p.Mean),
		Variance: cloneScalar(p.Variance),
	}
}

// Predict returns Alpha·x for a design row x = [1, x1..xn].
func (p *Parameter) Predict(x []float64) float64 {
	z := 0.0
	for j, a := range p.Alpha {
		z += a * x[j]
	}

	return z
}

// Impute returns the value of column j implied by response z.
func (p *Parameter) Impute(j int, z float64) float64 {
	return p.Betas[j][0] + p.Betas[j][1]*z
}

// Validate checks the shape invariants and that every coefficient is finite.
func (p *Parameter) Validate() error {
	if len(p.Alpha) == 0 {
		return errors.New("parameter has no coefficients")
	}
	if len(p.Betas) != len(p.Alpha) {
		return fmt.Errorf("parameter has %d betas for %d coefficients", len(p.Betas), len(p.Alpha))
	}
	for j, a := range p.Alpha {
		if !usable(a) {
			return fmt.Errorf("alpha[%d] = %g", j, a)
		}
	}
	for j, b := range p.Betas {
		if !usable(b[0]) || !usable(b[1]) {
			return fmt.Errorf("beta[%d] = %v", j, b)
		}
	}
	scalars := []struct {
		name string
		v    *float64
	}{{"weight", p.Weight}, {"mean", p.Mean}, {"variance", p.Variance}}
	for _, s := range scalars {
		if s.v != nil && !usable(*s.v) {
			return fmt.Errorf("%s = %g", s.name, *s.v)
		}
	}

	return nil
}

// Degenerate reports whether p cannot serve as a model: it fails Validate or
// every coefficient of Alpha is zero.
func (p *Parameter) Degenerate() bool {
	if p == nil || p.Validate() != nil {
		return true
	}
	for _, a := range p.Alpha {
		if a != 0 {
			return false
		}
	}

	return true
}

// Fingerprint returns a hash of every coefficient and optional scalar.
// Equal parameters have equal fingerprints.
func (p *Parameter) Fingerprint() uint64 {
	betas := make([]float64, 0, 2*len(p.Betas))
	for _, b := range p.Betas {
		betas = append(betas, b[0], b[1])
	}

	return hash.Floats(p.Alpha, betas, scalarSlice(p.Weight), scalarSlice(p.Mean), scalarSlice(p.Variance))
}

// Formula renders z = a0 + a1·label1 + ... using labels for design columns 1..n.
// Missing labels fall back to x1..xn.
func (p *Parameter) Formula(labels []string) string {
	var sb strings.Builder
	sb.WriteString("z = ")
	if len(p.Alpha) > 0 {
		sb.WriteString(formatFloat(p.Alpha[0]))
	}
	for j := 1; j < len(p.Alpha); j++ {
		a := p.Alpha[j]
		if a < 0 {
			sb.WriteString(" - ")
			a = -a
		} else {
			sb.WriteString(" + ")
		}
		sb.WriteString(formatFloat(a))
		sb.WriteString("*")
		if j < len(labels) {
			sb.WriteString(labels[j])
		} else {
			sb.WriteString("x" + strconv.Itoa(j))
		}
	}

	return sb.String()
}

// String returns a compact representation of every field.
func (p *Parameter) String() string {
	if p == nil {
		return "Parameter{nil}"
	}

	var sb strings.Builder
	sb.WriteString("Parameter{Alpha: [")
	for j, a := range p.Alpha {
		if j > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(formatFloat(a))
	}
	sb.WriteString("], Betas: [")
	for j, b := range p.Betas {
		if j > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[" + formatFloat(b[0]) + ", " + formatFloat(b[1]) + "]")
	}
	sb.WriteString("]")
	writeScalar(&sb, "Weight", p.Weight)
	writeScalar(&sb, "Mean", p.Mean)
	writeScalar(&sb, "Variance", p.Variance)
	sb.WriteString("}")

	return sb.String()
}

// Scalar returns a pointer to a copy of v, for the optional fields.
func Scalar(v float64) *float64 {
	return &v
}

func writeScalar(sb *strings.Builder, name string, v *float64) {
	if v == nil {
		return
	}
	sb.WriteString(", " + name + ": " + formatFloat(*v))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func cloneScalar(v *float64) *float64 {
	if v == nil {
		return nil
	}

	return Scalar(*v)
}

func scalarSlice(v *float64) []float64 {
	if v == nil {
		return nil
	}

	return []float64{*v}
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && !format.IsUnused(v)
}
