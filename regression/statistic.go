package regression

// Statistic is the completed (x, z) pair of one design row after imputation.
type Statistic struct {
	// Row is the design row the statistic was computed from.
	Row int
	// X is the completed [1, x1..xn] row.
	X []float64
	// Z is the completed response.
	Z float64
	// Valid is false when a cell is still missing or not finite.
	Valid bool
}

// ZRow returns the [1, z] row used by the beta regressions.
func (s Statistic) ZRow() []float64 {
	return []float64{1, s.Z}
}

// Statistics is the output of one expectation step, ordered by design row.
type Statistics []Statistic

// validate sets Valid from the content of X and Z.
func (s *Statistic) validate() {
	s.Valid = usable(s.Z)
	for _, v := range s.X {
		if !usable(v) {
			s.Valid = false
			return
		}
	}
}
