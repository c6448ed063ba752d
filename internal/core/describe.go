package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExportRow is the flat projection of a record used by the spreadsheet
// export and the sheet mirror.
type ExportRow struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
}

// ExportHeader names the ExportRow columns in output order.
var ExportHeader = []string{"Date", "Time", "Category", "Description", "Amount", "Status"}

// Describe builds the human-readable description shown in tables.
func Describe(e Expense) string {
	switch e.Category {
	case Bus:
		return fmt.Sprintf("%s → %s (%s tickets)", e.FromPlace, e.ToPlace, e.Count)
	case Petrol:
		return fmt.Sprintf("%s → %s (%s km)", e.FromPlace, e.ToPlace, e.Km)
	case Food:
		suffix := ""
		if e.Persons.Float() > 1 {
			suffix = "s"
		}
		return fmt.Sprintf("Food for %s person%s", e.Persons, suffix)
	case Others:
		if e.ItemName != "" {
			return e.ItemName
		}
		return "Other expense"
	default:
		return "Expense"
	}
}

// StatusLabel returns "Claimed" or "Pending".
func StatusLabel(claimed bool) string {
	if claimed {
		return "Claimed"
	}
	return "Pending"
}

// FormatTime trims HH:MM:SS to HH:MM; empty input renders as "--:--".
func FormatTime(s string) string {
	if s == "" {
		return "--:--"
	}
	parts := strings.Split(s, ":")
	if len(parts) >= 2 {
		return parts[0] + ":" + parts[1]
	}
	return s
}

// FormatDate renders an ISO date as "Jan 2, 2006", or s unchanged when it
// does not parse.
func FormatDate(s string) string {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// FormatAmount renders an amount with two decimals, half-up.
func FormatAmount(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}

// ResultsLabel is the "N results" badge text.
func ResultsLabel(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// ExportRowFor projects one record.
func ExportRowFor(e Expense) ExportRow {
	return ExportRow{
		ID:          e.ID,
		Date:        FormatDate(e.Date),
		Time:        FormatTime(e.Time),
		Category:    string(e.Category),
		Description: Describe(e),
		Amount:      e.Total.Float(),
		Status:      StatusLabel(e.Claimed),
	}
}

// ExportRows projects a view list, preserving its order.
func ExportRows(records []Expense) []ExportRow {
	rows := make([]ExportRow, 0, len(records))
	for _, e := range records {
		rows = append(rows, ExportRowFor(e))
	}
	return rows
}

// ComputeTotal derives the amount from the pricing fields the way the entry
// form does: quantity times unit price for Bus, Petrol and Food, the price
// alone for Others. The result is rounded to two decimals.
func ComputeTotal(e Expense) Numeric {
	price := decimal.NewFromFloat(e.Price.Float())
	var total decimal.Decimal
	switch e.Category {
	case Bus:
		total = decimal.NewFromFloat(e.Count.Float()).Mul(price)
	case Petrol:
		total = decimal.NewFromFloat(e.Km.Float()).Mul(price)
	case Food:
		total = decimal.NewFromFloat(e.Persons.Float()).Mul(price)
	case Others:
		total = price
	default:
		total = decimal.Zero
	}
	return Numeric(total.StringFixed(2))
}
