package sheets

import (
	"context"

	"xpenso/internal/core"
)

// RowWriter mirrors export rows into a spreadsheet keyed by expense ID.
type RowWriter interface {
	// AppendRow inserts the row, or overwrites the existing row with the same ID.
	AppendRow(ctx context.Context, row core.ExportRow) (ref string, err error)
	// DeleteRow removes the row for id; a missing row is not an error.
	DeleteRow(ctx context.Context, id string) error
}

// Header is the first row of the mirror sheet.
var Header = append([]string{"ID"}, core.ExportHeader...)

// Values flattens a row in Header order.
func Values(row core.ExportRow) []any {
	return []any{row.ID, row.Date, row.Time, row.Category, row.Description, row.Amount, row.Status}
}
