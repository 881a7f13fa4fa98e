package memory

import (
	"context"
	"fmt"
	"sync"

	"bujit/internal/sheets"
)

// Exporter keeps exported rows in memory. The worker uses it when no
// spreadsheet is configured.
type Exporter struct {
	mu   sync.Mutex
	rows []sheets.Row
}

var _ sheets.TransactionExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// AppendRows stores the rows and returns a synthetic A1 range, counting the
// header as row 1.
func (e *Exporter) AppendRows(_ context.Context, rows []sheets.Row) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	first := len(e.rows) + 2
	e.rows = append(e.rows, rows...)
	return fmt.Sprintf("mem!A%d:H%d", first, len(e.rows)+1), nil
}

// Rows returns a copy of everything exported so far.
func (e *Exporter) Rows() []sheets.Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sheets.Row(nil), e.rows...)
}
