package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"xpenso/internal/core"
	"xpenso/internal/sheets"
)

// Writer keeps mirrored rows in process; used when no spreadsheet is configured.
type Writer struct {
	mu   sync.Mutex
	rows []core.ExportRow
}

func New() *Writer {
	return &Writer{}
}

// AppendRow inserts or replaces the row with the same ID and returns a
// synthetic 1-based row reference.
func (w *Writer) AppendRow(_ context.Context, row core.ExportRow) (string, error) {
	if row.ID == "" {
		return "", fmt.Errorf("row without id")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if i := w.indexOf(row.ID); i >= 0 {
		w.rows[i] = row
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	w.rows = append(w.rows, row)
	return fmt.Sprintf("mem:%d", len(w.rows)), nil
}

func (w *Writer) DeleteRow(_ context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i := w.indexOf(id); i >= 0 {
		w.rows = slices.Delete(w.rows, i, i+1)
	}
	return nil
}

// Rows returns a copy of the mirrored rows in insertion order.
func (w *Writer) Rows() []core.ExportRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.rows)
}

func (w *Writer) indexOf(id string) int {
	return slices.IndexFunc(w.rows, func(r core.ExportRow) bool { return r.ID == id })
}

var _ sheets.RowWriter = (*Writer)(nil)
