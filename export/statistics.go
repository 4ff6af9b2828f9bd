package export

import (
	"io"
	"math"

	"github.com/arloliu/emreg/format"
	"github.com/arloliu/emreg/mixture"
	"github.com/arloliu/emreg/regression"
)

// RowColumn names the design row number column of a statistics table.
const RowColumn = "row"

// ObservedSuffix marks the columns that flag whether a cell was observed.
const ObservedSuffix = ".observed"

// StatisticsTable lays out the completed rows of a fit: the design row
// number, every regressor and the response, then one observed flag per
// regressor and the response.
func StatisticsTable(d *regression.Design, stats regression.Statistics) *Table {
	labels := d.Labels[1:]
	cols := make([]string, 0, 2+2*len(labels)+1)
	cols = append(cols, RowColumn)
	cols = append(cols, labels...)
	cols = append(cols, d.Response)
	for _, l := range labels {
		cols = append(cols, l+ObservedSuffix)
	}
	cols = append(cols, d.Response+ObservedSuffix)

	t := &Table{Kind: KindStatistics, Columns: cols, Rows: make([][]float64, 0, len(stats))}
	for _, st := range stats {
		row := make([]float64, 0, len(cols))
		row = append(row, float64(st.Row))
		row = append(row, st.X[1:]...)
		row = append(row, st.Z)
		for j := 1; j < d.Cols(); j++ {
			row = append(row, flag(!d.IsMissing(st.Row, j)))
		}
		row = append(row, flag(!d.ResponseMissing(st.Row)))
		t.Rows = append(t.Rows, row)
	}

	return t
}

// WriteStatistics writes the completed rows of a fit as one frame.
func WriteStatistics(w io.Writer, compression format.CompressionType, d *regression.Design, stats regression.Statistics) (Stats, error) {
	return WriteTable(w, compression, StatisticsTable(d, stats))
}

// MixtureTable lays out the components of a mixture, one row each:
// weight, mean, variance, every Alpha entry, then every Beta pair.
func MixtureTable(m *mixture.Model) *Table {
	cols := []string{"component", "weight", "mean", "variance"}
	for _, l := range m.Labels {
		cols = append(cols, "alpha["+l+"]")
	}
	for _, l := range m.Labels {
		cols = append(cols, "beta0["+l+"]", "beta1["+l+"]")
	}

	t := &Table{Kind: KindMixture, Columns: cols}
	for k, c := range m.Components {
		row := []float64{float64(k), scalar(c.Weight), scalar(c.Mean), scalar(c.Variance)}
		row = append(row, c.Alpha...)
		for _, b := range c.Betas {
			row = append(row, b[0], b[1])
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}

// WriteMixture writes the components of a mixture as one frame.
func WriteMixture(w io.Writer, compression format.CompressionType, m *mixture.Model) (Stats, error) {
	return WriteTable(w, compression, MixtureTable(m))
}

func flag(b bool) float64 {
	if b {
		return 1
	}

	return 0
}

func scalar(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}

	return *v
}
