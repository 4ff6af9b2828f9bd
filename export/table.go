package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/format"
)

// Table is a named-column numeric table, the unit every export frame carries.
// NaN cells are written as empty fields.
type Table struct {
	Kind    Kind
	Columns []string
	Rows    [][]float64
}

// Append adds a row. It returns errs.ErrRowLength when the row does not
// match the columns.
func (t *Table) Append(row ...float64) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("%w: %d values for %d columns", errs.ErrRowLength, len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)

	return nil
}

// Column returns the values of the named column, or nil when it does not exist.
func (t *Table) Column(name string) []float64 {
	for j, c := range t.Columns {
		if c != name {
			continue
		}
		out := make([]float64, len(t.Rows))
		for i, row := range t.Rows {
			out[i] = row[j]
		}

		return out
	}

	return nil
}

// MarshalCSV renders the table as CSV with a header row.
func (t *Table) MarshalCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j, v := range row {
			if math.IsNaN(v) {
				record[j] = ""
				continue
			}
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()

	return buf.Bytes(), w.Error()
}

// UnmarshalCSV parses a table produced by MarshalCSV.
func (t *Table) UnmarshalCSV(data []byte) error {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: table without header", errs.ErrRowLength)
	}

	t.Columns = records[0]
	t.Rows = make([][]float64, 0, len(records)-1)
	for i, rec := range records[1:] {
		row := make([]float64, len(rec))
		for j, field := range rec {
			if field == "" {
				row[j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i+1, t.Columns[j], err)
			}
			row[j] = v
		}
		t.Rows = append(t.Rows, row)
	}

	return nil
}

// WriteTable writes t as one frame to w.
func WriteTable(w io.Writer, compression format.CompressionType, t *Table) (Stats, error) {
	raw, err := t.MarshalCSV()
	if err != nil {
		return Stats{}, err
	}

	return WriteFrame(w, t.Kind, compression, raw)
}

// ReadTable reads one frame from r and parses its table.
func ReadTable(r io.Reader) (*Table, error) {
	h, raw, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	t := &Table{Kind: h.Kind}
	if err := t.UnmarshalCSV(raw); err != nil {
		return nil, err
	}

	return t, nil
}
