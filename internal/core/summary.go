package core

import "sort"

type (
	// CategoryAmount is one bar of the category chart.
	CategoryAmount struct {
		Category Category `json:"category"`
		Amount   float64  `json:"amount"`
	}

	// DateAmount is one point of the daily time series.
	DateAmount struct {
		Date   string  `json:"date"`
		Amount float64 `json:"amount"`
	}

	// Summary holds the scalar aggregates and chart rollups of a record list.
	Summary struct {
		Count       int              `json:"count"`
		Total       float64          `json:"total"`
		Claimed     float64          `json:"claimed"`
		Pending     float64          `json:"pending"`
		TotalKm     float64          `json:"total_km"`
		UnclaimedKm float64          `json:"unclaimed_km"`
		ByCategory  []CategoryAmount `json:"by_category"`
		ByDate      []DateAmount     `json:"by_date"`
	}
)

// Summarize reduces records to a Summary. Pending is derived as
// Total - Claimed so the two always add up to Total. Records with an
// unknown category count toward the totals but toward no category bucket
// and no distance metric.
func Summarize(records []Expense) Summary {
	s := Summary{Count: len(records)}

	byCategory := make(map[Category]float64, len(Categories))
	byDate := make(map[string]float64)

	for _, e := range records {
		amount := e.Total.Float()
		s.Total += amount
		if e.Claimed {
			s.Claimed += amount
		}
		if e.Category == Petrol {
			km := e.Km.Float()
			s.TotalKm += km
			if !e.Claimed {
				s.UnclaimedKm += km
			}
		}
		if e.Category.IsKnown() {
			byCategory[e.Category] += amount
		}
		byDate[e.Date] += amount
	}
	s.Pending = s.Total - s.Claimed

	s.ByCategory = make([]CategoryAmount, 0, len(Categories))
	for _, c := range Categories {
		s.ByCategory = append(s.ByCategory, CategoryAmount{Category: c, Amount: byCategory[c]})
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	s.ByDate = make([]DateAmount, 0, len(dates))
	for _, d := range dates {
		s.ByDate = append(s.ByDate, DateAmount{Date: d, Amount: byDate[d]})
	}

	return s
}

// CategoryTotal returns the bucket for c, zero for unknown categories.
func (s Summary) CategoryTotal(c Category) float64 {
	for _, ca := range s.ByCategory {
		if ca.Category == c {
			return ca.Amount
		}
	}
	return 0
}
