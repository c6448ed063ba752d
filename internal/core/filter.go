package core

import (
	"slices"
	"strings"
	"time"
)

const (
	SortDateDesc   SortKey = "date_desc"
	SortDateAsc    SortKey = "date_asc"
	SortAmountDesc SortKey = "amount_desc"
	SortAmountAsc  SortKey = "amount_asc"
	SortKmDesc     SortKey = "km_desc"
	SortKmAsc      SortKey = "km_asc"

	StatusAny     Status = ""
	StatusClaimed Status = "claimed"
	StatusPending Status = "pending"
)

type (
	SortKey string
	Status  string

	// Criteria is the transient filter state held by the caller. Zero
	// values mean "no restriction"; the zero Sort means date_desc.
	Criteria struct {
		Search   string   `json:"search,omitempty"`
		Category Category `json:"category,omitempty"`
		Status   Status   `json:"status,omitempty"`
		From     string   `json:"from,omitempty"`
		To       string   `json:"to,omitempty"`
		Sort     SortKey  `json:"sort,omitempty"`
	}
)

// SortKeys lists the supported orderings, default first.
var SortKeys = []SortKey{SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc, SortKmDesc, SortKmAsc}

// ParseSortKey normalises user input; unknown values fall back to date_desc.
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, k) {
		return k
	}
	return SortDateDesc
}

// ParseStatus normalises user input; unknown values disable the filter.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusClaimed, StatusPending:
		return st
	}
	return StatusAny
}

// IsEmpty reports whether no filter is active. Sort is not a filter.
func (c Criteria) IsEmpty() bool {
	return strings.TrimSpace(c.Search) == "" &&
		c.Category == "" &&
		c.Status == StatusAny &&
		c.From == "" &&
		c.To == ""
}

// Match reports whether e passes every active criterion.
func (c Criteria) Match(e Expense) bool {
	return c.matchSearch(e) &&
		c.matchCategory(e) &&
		c.matchStatus(e) &&
		c.matchDates(e)
}

func (c Criteria) matchSearch(e Expense) bool {
	term := strings.ToLower(strings.TrimSpace(c.Search))
	if term == "" {
		return true
	}
	for _, field := range []string{string(e.Category), e.FromPlace, e.ToPlace, e.ItemName} {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (c Criteria) matchCategory(e Expense) bool {
	return c.Category == "" || e.Category == c.Category
}

func (c Criteria) matchStatus(e Expense) bool {
	switch c.Status {
	case StatusClaimed:
		return e.Claimed
	case StatusPending:
		return !e.Claimed
	}
	return true
}

// ISO dates order correctly as plain strings.
func (c Criteria) matchDates(e Expense) bool {
	if c.From != "" && e.Date < c.From {
		return false
	}
	if c.To != "" && e.Date > c.To {
		return false
	}
	return true
}

// View filters records by c and sorts the survivors by c.Sort. The result
// is always a new slice; records itself is never reordered.
func View(records []Expense, c Criteria) []Expense {
	out := make([]Expense, 0, len(records))
	for _, e := range records {
		if c.Match(e) {
			out = append(out, e)
		}
	}
	SortExpenses(out, c.Sort)
	return out
}

// SortExpenses stably sorts list in place. Equal keys keep their order.
func SortExpenses(list []Expense, key SortKey) {
	var cmp func(a, b Expense) int
	switch ParseSortKey(string(key)) {
	case SortDateAsc:
		cmp = func(a, b Expense) int { return compareFloat(DateMillis(a.Date), DateMillis(b.Date)) }
	case SortAmountDesc:
		cmp = func(a, b Expense) int { return compareFloat(b.Total.Float(), a.Total.Float()) }
	case SortAmountAsc:
		cmp = func(a, b Expense) int { return compareFloat(a.Total.Float(), b.Total.Float()) }
	case SortKmDesc:
		cmp = func(a, b Expense) int { return compareFloat(b.Km.Float(), a.Km.Float()) }
	case SortKmAsc:
		cmp = func(a, b Expense) int { return compareFloat(a.Km.Float(), b.Km.Float()) }
	default:
		cmp = func(a, b Expense) int { return compareFloat(DateMillis(b.Date), DateMillis(a.Date)) }
	}
	slices.SortStableFunc(list, cmp)
}

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// DateMillis converts a record date to Unix milliseconds. Unparseable
// dates sort as the epoch.
func DateMillis(s string) float64 {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.UnixMilli())
		}
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
