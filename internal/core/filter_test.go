package core

import (
	"reflect"
	"testing"
)

func sampleExpenses() []Expense {
	return []Expense{
		{ID: "1", Date: "2024-01-01", Category: Bus, Total: "100", Claimed: true, FromPlace: "Pune", ToPlace: "Mumbai", Count: "2"},
		{ID: "2", Date: "2024-01-02", Category: Food, Total: "50", Persons: "2"},
		{ID: "3", Date: "2024-01-03", Category: Petrol, Total: "300", Km: "120", FromPlace: "Office", ToPlace: "Site"},
		{ID: "4", Date: "2024-01-03", Category: Petrol, Total: "90", Km: "30", Claimed: true, FromPlace: "Home", ToPlace: "Office"},
		{ID: "5", Date: "2024-02-10", Category: Others, Total: "abc", ItemName: "Printer ink"},
		{ID: "6", Date: "2024-02-11", Category: "Hotel", Total: "20"},
	}
}

func ids(list []Expense) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func TestViewFilters(t *testing.T) {
	records := sampleExpenses()
	cases := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"no criteria sorts by date desc", Criteria{}, []string{"6", "5", "3", "4", "2", "1"}},
		{"search category case-insensitive", Criteria{Search: "PETROL"}, []string{"3", "4"}},
		{"search places", Criteria{Search: "office"}, []string{"3", "4"}},
		{"search item name", Criteria{Search: "ink"}, []string{"5"}},
		{"search term is trimmed", Criteria{Search: "  Ink "}, []string{"5"}},
		{"unknown status does not filter", Criteria{Status: "maybe", Category: Petrol}, []string{"3", "4"}},
		{"search unknown category verbatim", Criteria{Search: "hot"}, []string{"6"}},
		{"search miss", Criteria{Search: "zzz"}, []string{}},
		{"category exact", Criteria{Category: Food}, []string{"2"}},
		{"category is case-sensitive", Criteria{Category: "food"}, []string{}},
		{"claimed", Criteria{Status: StatusClaimed}, []string{"4", "1"}},
		{"pending", Criteria{Status: StatusPending}, []string{"6", "5", "3", "2"}},
		{"petrol pending", Criteria{Category: Petrol, Status: StatusPending}, []string{"3"}},
		{"date range inclusive", Criteria{From: "2024-01-02", To: "2024-01-03"}, []string{"3", "4", "2"}},
		{"from only", Criteria{From: "2024-02-01"}, []string{"6", "5"}},
		{"to only", Criteria{To: "2024-01-01"}, []string{"1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(View(records, tc.c))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestViewSortModes(t *testing.T) {
	records := sampleExpenses()
	cases := []struct {
		sort SortKey
		want []string
	}{
		{SortDateAsc, []string{"1", "2", "3", "4", "5", "6"}},
		{SortAmountDesc, []string{"3", "1", "4", "2", "6", "5"}},
		{SortAmountAsc, []string{"5", "6", "2", "4", "1", "3"}},
		{SortKmDesc, []string{"3", "4", "1", "2", "5", "6"}},
		{SortKmAsc, []string{"1", "2", "5", "6", "4", "3"}},
		{"bogus", []string{"6", "5", "3", "4", "2", "1"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.sort), func(t *testing.T) {
			got := ids(View(records, Criteria{Sort: tc.sort}))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestViewAmountAscScenario(t *testing.T) {
	records := []Expense{
		{ID: "bus", Date: "2024-01-01", Total: "100", Category: Bus, Claimed: true},
		{ID: "food", Date: "2024-01-02", Total: "50", Category: Food},
	}
	got := ids(View(records, Criteria{Sort: SortAmountAsc}))
	if !reflect.DeepEqual(got, []string{"food", "bus"}) {
		t.Fatalf("got %v", got)
	}
}

func TestViewUnparseableDateSortsAsEpoch(t *testing.T) {
	records := []Expense{
		{ID: "bad", Date: "someday"},
		{ID: "old", Date: "1999-12-31"},
		{ID: "new", Date: "2024-05-01"},
	}
	got := ids(View(records, Criteria{Sort: SortDateAsc}))
	if !reflect.DeepEqual(got, []string{"bad", "old", "new"}) {
		t.Fatalf("got %v", got)
	}
}

func TestViewDoesNotReorderInput(t *testing.T) {
	records := sampleExpenses()
	before := ids(records)
	out := View(records, Criteria{Sort: SortAmountAsc})
	if !reflect.DeepEqual(ids(records), before) {
		t.Fatalf("input reordered: %v", ids(records))
	}
	out[0].ID = "mutated"
	if records[4].ID == "mutated" || records[0].ID == "mutated" {
		t.Fatalf("result shares storage with input")
	}
}

func TestViewEmptyInput(t *testing.T) {
	got := View(nil, Criteria{Search: "x"})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestViewIsIdempotentAndBounded(t *testing.T) {
	records := sampleExpenses()
	for _, c := range []Criteria{
		{},
		{Search: "o", Sort: SortKmDesc},
		{Status: StatusPending, Sort: SortAmountAsc},
		{From: "2024-01-02", Category: Petrol, Sort: SortDateAsc},
	} {
		once := View(records, c)
		twice := View(once, c)
		if len(once) > len(records) {
			t.Fatalf("view grew: %d > %d", len(once), len(records))
		}
		if !reflect.DeepEqual(ids(once), ids(twice)) {
			t.Fatalf("not idempotent for %+v: %v vs %v", c, ids(once), ids(twice))
		}
	}
}

func TestSortIsStable(t *testing.T) {
	records := []Expense{
		{ID: "a", Date: "2024-01-01", Total: "10"},
		{ID: "b", Date: "2024-01-02", Total: "10"},
		{ID: "c", Date: "2024-01-03", Total: "5"},
		{ID: "d", Date: "2024-01-04", Total: "10"},
	}
	got := ids(View(records, Criteria{Sort: SortAmountDesc}))
	if !reflect.DeepEqual(got, []string{"a", "b", "d", "c"}) {
		t.Fatalf("got %v", got)
	}
}

func TestParseSortKeyAndStatus(t *testing.T) {
	if ParseSortKey(" KM_ASC ") != SortKmAsc {
		t.Fatalf("expected km_asc")
	}
	if ParseSortKey("") != SortDateDesc || ParseSortKey("price") != SortDateDesc {
		t.Fatalf("expected date_desc fallback")
	}
	if ParseStatus("Claimed") != StatusClaimed || ParseStatus("pending") != StatusPending {
		t.Fatalf("unexpected status parse")
	}
	if ParseStatus("all") != StatusAny {
		t.Fatalf("expected any")
	}
}

func TestCriteriaIsEmpty(t *testing.T) {
	if !(Criteria{Sort: SortKmAsc}).IsEmpty() {
		t.Fatalf("sort alone is not a filter")
	}
	if (Criteria{To: "2024-01-01"}).IsEmpty() {
		t.Fatalf("date bound is a filter")
	}
}
