package regression

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/arloliu/emreg/dataset"
	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/format"
	"github.com/arloliu/emreg/indices"
)

// Design is the cached design data of one fit.
//
// X holds rows of [1, x1..xn] and Z rows of [1, z]. Missing cells carry
// format.Unused. The per-column missing masks are roaring bitmaps of row
// numbers; column 0 is the constant and never missing.
//
// A Design is read-only after BuildDesign returns and may be shared by
// concurrent estimators.
type Design struct {
	X [][]float64
	Z [][]float64

	// Indices lists the kept regressors; X column j reads Indices.X[j].
	Indices *indices.Indices
	// Labels names each design column, "1" first.
	Labels []string
	// Response names the response.
	Response string

	missing  []*roaring.Bitmap
	zMissing *roaring.Bitmap
}

// BuildDesign extracts the design data of ix from sample.
//
// The first scan finds the regressors that are observed in at least one row;
// the others are discarded. After a Reset the second scan fills the design,
// and the sample is reset once more before returning. Rows with no observed
// cell at all are skipped.
//
// Returns an error matching errs.ErrInsufficientData when no regressor or no
// response value is ever observed.
func BuildDesign(sample dataset.Sample, ix *indices.Indices) (*Design, error) {
	if err := ix.Bind(sample.Schema()); err != nil {
		return nil, err
	}

	seen := make([]bool, len(ix.X))
	responseSeen := false
	for sample.Next() {
		p := sample.Pick()
		for j := 1; j < len(ix.X); j++ {
			if !seen[j] {
				_, seen[j] = ix.X[j].Value(p)
			}
		}
		if !responseSeen {
			_, responseSeen = ix.Response().Value(p)
		}
	}
	if err := sample.Reset(); err != nil {
		return nil, fmt.Errorf("reset sample: %w", err)
	}

	if !responseSeen {
		return nil, fmt.Errorf("%w: response %s is never observed", errs.ErrInsufficientData, ix.Response())
	}
	kept := make([]int, 0, len(ix.X))
	for j := 1; j < len(ix.X); j++ {
		if seen[j] {
			kept = append(kept, j)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no regressor is ever observed", errs.ErrInsufficientData)
	}

	selected := ix.Select(kept)
	cols := len(selected.X)
	d := &Design{
		Indices:  selected,
		Labels:   selected.Labels(sample.Schema()),
		Response: selected.Response().Label(sample.Schema()),
		missing:  make([]*roaring.Bitmap, cols),
		zMissing: roaring.New(),
	}
	for j := range d.missing {
		d.missing[j] = roaring.New()
	}

	for sample.Next() {
		p := sample.Pick()
		x := make([]float64, cols)
		x[0] = 1
		observed := 0
		row := uint32(len(d.X))
		for j := 1; j < cols; j++ {
			if v, ok := selected.X[j].Value(p); ok {
				x[j] = v
				observed++
			} else {
				x[j] = format.Unused
				d.missing[j].Add(row)
			}
		}

		z := format.Unused
		if v, ok := selected.Response().Value(p); ok {
			z = v
			observed++
		}
		if observed == 0 {
			for j := 1; j < cols; j++ {
				d.missing[j].Remove(row)
			}
			continue
		}
		if format.IsUnused(z) {
			d.zMissing.Add(row)
		}

		d.X = append(d.X, x)
		d.Z = append(d.Z, []float64{1, z})
	}

	if err := sample.Reset(); err != nil {
		return nil, fmt.Errorf("reset sample: %w", err)
	}
	if len(d.X) == 0 {
		return nil, fmt.Errorf("%w: no row has an observed value", errs.ErrInsufficientData)
	}

	return d, nil
}

// Rows returns the number of design rows.
func (d *Design) Rows() int {
	return len(d.X)
}

// Cols returns the number of design columns including the constant.
func (d *Design) Cols() int {
	return len(d.Indices.X)
}

// IsMissing reports whether X[row][col] is missing.
func (d *Design) IsMissing(row, col int) bool {
	return d.missing[col].Contains(uint32(row))
}

// ResponseMissing reports whether Z[row][1] is missing.
func (d *Design) ResponseMissing(row int) bool {
	return d.zMissing.Contains(uint32(row))
}

// MissingCount returns the number of missing cells of row, response included.
func (d *Design) MissingCount(row int) int {
	n := 0
	for j := 1; j < len(d.missing); j++ {
		if d.missing[j].Contains(uint32(row)) {
			n++
		}
	}
	if d.ResponseMissing(row) {
		n++
	}

	return n
}

// MissingInColumn returns the number of rows missing column col.
func (d *Design) MissingInColumn(col int) int {
	return int(d.missing[col].GetCardinality())
}

// ResponseObserved returns the number of rows with an observed response.
func (d *Design) ResponseObserved() int {
	return d.Rows() - int(d.zMissing.GetCardinality())
}

// CompleteRows returns the rows with every cell observed, in order.
func (d *Design) CompleteRows() []int {
	incomplete := roaring.FastOr(append([]*roaring.Bitmap{d.zMissing}, d.missing...)...)
	complete := roaring.Flip(incomplete, 0, uint64(d.Rows()))

	rows := make([]int, 0, complete.GetCardinality())
	it := complete.Iterator()
	for it.HasNext() {
		rows = append(rows, int(it.Next()))
	}

	return rows
}
