package em

import (
	"fmt"
	"math"

	"github.com/arloliu/emreg/format"
)

// Threshold decides whether two values are close enough to count as unchanged.
type Threshold struct {
	Epsilon float64
	Mode    format.ThresholdMode
}

// DefaultThreshold is an absolute threshold of 1e-3.
var DefaultThreshold = Threshold{Epsilon: 1e-3, Mode: format.ThresholdAbsolute}

// Validate checks epsilon and mode.
func (t Threshold) Validate() error {
	if t.Epsilon < 0 || math.IsNaN(t.Epsilon) || math.IsInf(t.Epsilon, 0) {
		return fmt.Errorf("threshold epsilon must be a finite non-negative number, got %g", t.Epsilon)
	}
	if t.Mode != format.ThresholdAbsolute && t.Mode != format.ThresholdRatio {
		return fmt.Errorf("invalid threshold mode %v", t.Mode)
	}

	return nil
}

// change returns the absolute or relative difference of estimated against reference.
// A zero reference makes the relative change fall back to the absolute one.
func (t Threshold) change(estimated, reference float64) float64 {
	d := math.Abs(estimated - reference)
	if t.Mode == format.ThresholdRatio && reference != 0 {
		d /= math.Abs(reference)
	}

	return d
}

// Close reports whether estimated differs from reference by at most epsilon.
func (t Threshold) Close(estimated, reference float64) bool {
	return t.change(estimated, reference) <= t.Epsilon
}

// CloseAll reports whether the vectors have equal length and every pair is Close.
func (t Threshold) CloseAll(estimated, reference []float64) bool {
	if len(estimated) != len(reference) {
		return false
	}
	for i := range estimated {
		if !t.Close(estimated[i], reference[i]) {
			return false
		}
	}

	return true
}

// CloseOptional compares optional scalars. Both absent is close; one absent
// is never close.
func (t Threshold) CloseOptional(estimated, reference *float64) bool {
	switch {
	case estimated == nil && reference == nil:
		return true
	case estimated == nil || reference == nil:
		return false
	default:
		return t.Close(*estimated, *reference)
	}
}

// Improved reports whether candidate exceeds baseline by more than epsilon.
func (t Threshold) Improved(candidate, baseline float64) bool {
	gain := candidate - baseline
	if t.Mode == format.ThresholdRatio && baseline != 0 {
		gain /= math.Abs(baseline)
	}

	return gain > t.Epsilon
}

// MaxChange returns the largest per-element change between the vectors, or +Inf
// when their lengths differ.
func (t Threshold) MaxChange(estimated, reference []float64) float64 {
	if len(estimated) != len(reference) {
		return math.Inf(1)
	}
	worst := 0.0
	for i := range estimated {
		worst = math.Max(worst, t.change(estimated[i], reference[i]))
	}

	return worst
}
