package export

import (
	"io"
	"strconv"
	"sync"

	"github.com/arloliu/emreg/em"
	"github.com/arloliu/emreg/format"
	"github.com/arloliu/emreg/regression"
)

// Trace records the parameter of every EM iteration. Register it with
// regression.WithObserver.
//
// Columns: iteration, state, elapsed_ms, alpha[...] and beta0/beta1[...]
// per design column. Column labels come from NewTrace or, when none were
// given, from the column numbers.
type Trace struct {
	labels []string

	mu    sync.Mutex
	table *Table
}

var _ em.Observer[*regression.Parameter] = (*Trace)(nil)

// NewTrace creates an empty trace. labels name the design columns, "1" first.
func NewTrace(labels ...string) *Trace {
	return &Trace{labels: labels}
}

// OnProgress implements em.Observer.
func (tr *Trace) OnProgress(p em.Progress[*regression.Parameter]) {
	if p.Parameter == nil {
		return
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.table == nil {
		tr.table = &Table{Kind: KindTrace, Columns: tr.columns(p.Parameter.Cols())}
	}
	row := make([]float64, 0, len(tr.table.Columns))
	row = append(row, float64(p.Iteration), float64(p.State), float64(p.Elapsed.Microseconds())/1000)
	row = append(row, p.Parameter.Alpha...)
	for _, b := range p.Parameter.Betas {
		row = append(row, b[0], b[1])
	}
	// a parameter of another shape cannot share the table
	_ = tr.table.Append(row...)
}

// Len returns the number of recorded iterations.
func (tr *Trace) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.table == nil {
		return 0
	}

	return len(tr.table.Rows)
}

// Table returns a copy of the recorded table. It is empty before the first iteration.
func (tr *Trace) Table() *Table {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.table == nil {
		return &Table{Kind: KindTrace}
	}
	rows := make([][]float64, len(tr.table.Rows))
	for i, r := range tr.table.Rows {
		rows[i] = append([]float64(nil), r...)
	}

	return &Table{Kind: KindTrace, Columns: append([]string(nil), tr.table.Columns...), Rows: rows}
}

// Reset discards the recorded iterations.
func (tr *Trace) Reset() {
	tr.mu.Lock()
	tr.table = nil
	tr.mu.Unlock()
}

// Export writes the recorded table as one frame.
func (tr *Trace) Export(w io.Writer, compression format.CompressionType) (Stats, error) {
	return WriteTable(w, compression, tr.Table())
}

func (tr *Trace) columns(cols int) []string {
	label := func(j int) string {
		if j < len(tr.labels) {
			return tr.labels[j]
		}

		return strconv.Itoa(j)
	}

	names := []string{"iteration", "state", "elapsed_ms"}
	for j := range cols {
		names = append(names, "alpha["+label(j)+"]")
	}
	for j := range cols {
		names = append(names, "beta0["+label(j)+"]", "beta1["+label(j)+"]")
	}

	return names
}
