// Package export renders view lists as spreadsheet downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"xpenso/internal/core"
)

const (
	SheetName       = "Expenses"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// FileName returns xpenso-data-YYYY-MM-DD.<ext> for the given day.
func FileName(now time.Time, ext string) string {
	return fmt.Sprintf("xpenso-data-%s.%s", now.Format(core.DateLayout), ext)
}

// Total sums the row amounts with decimal arithmetic.
func Total(rows []core.ExportRow) float64 {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(decimal.NewFromFloat(r.Amount))
	}
	f, _ := sum.Round(2).Float64()
	return f
}

// WriteXLSX writes a single-sheet workbook: a header, one line per row and a
// closing Total line.
func WriteXLSX(w io.Writer, rows []core.ExportRow, total float64) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	header := make([]any, len(core.ExportHeader))
	for i, h := range core.ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "F1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{r.Date, r.Time, r.Category, r.Description, r.Amount, r.Status}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	totalRow := len(rows) + 2
	labelCell, _ := excelize.CoordinatesToCellName(4, totalRow)
	amountCell, _ := excelize.CoordinatesToCellName(5, totalRow)
	if err := f.SetCellValue(SheetName, labelCell, "Total"); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	if err := f.SetCellValue(SheetName, amountCell, total); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	if err := f.SetCellStyle(SheetName, labelCell, amountCell, bold); err != nil {
		return fmt.Errorf("style total: %w", err)
	}
	if len(rows) > 0 {
		if err := f.SetCellStyle(SheetName, "E2", fmt.Sprintf("E%d", totalRow-1), money); err != nil {
			return fmt.Errorf("style amounts: %w", err)
		}
	}
	if err := f.SetColWidth(SheetName, "D", "D", 40); err != nil {
		return fmt.Errorf("set width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes the header followed by one record per row; amounts use
// two decimals.
func WriteCSV(w io.Writer, rows []core.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(core.ExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{r.Date, r.Time, r.Category, r.Description, core.FormatAmount(r.Amount), r.Status}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
