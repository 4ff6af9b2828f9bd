package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// missingTokens are the cell spellings read as a missing value.
var missingTokens = map[string]struct{}{
	"":    {},
	"?":   {},
	"NA":  {},
	"N/A": {},
	"NaN": {},
	"nan": {},
}

// ReadCSV reads a comma-separated sample. The first record names the fields;
// every field is real-valued. Empty cells and the tokens ?, NA, N/A and NaN are
// missing values.
func ReadCSV(r io.Reader) (*MemorySample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}

	schema, err := RealSchema(names...)
	if err != nil {
		return nil, err
	}
	sample, err := NewMemorySample(schema)
	if err != nil {
		return nil, err
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		p := NewProfile(schema)
		for i, cell := range record {
			cell = strings.TrimSpace(cell)
			if _, missing := missingTokens[cell]; missing {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d field %q: %w", line, names[i], err)
			}
			p.Set(i, v)
		}
		if err := sample.Add(p); err != nil {
			return nil, err
		}
	}

	return sample, nil
}
