package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"xpenso/internal/core"

	goption "google.golang.org/api/option"
)

// fakeSheet emulates the handful of Sheets endpoints the client calls.
type fakeSheet struct {
	mu   sync.Mutex
	rows [][]any
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path

	var body struct {
		Values   [][]any `json:"values"`
		Requests []struct {
			DeleteDimension struct {
				Range struct {
					StartIndex int `json:"startIndex"`
					EndIndex   int `json:"endIndex"`
				} `json:"range"`
			} `json:"deleteDimension"`
		} `json:"requests"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}

	switch {
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		ids := make([][]any, len(f.rows))
		for i, row := range f.rows {
			ids[i] = []any{row[0]}
		}
		json.NewEncoder(w).Encode(map[string]any{"values": ids})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		start := len(f.rows) + 1
		f.rows = append(f.rows, body.Values...)
		json.NewEncoder(w).Encode(map[string]any{"updates": map[string]any{
			"updatedRange": fmt.Sprintf("Expenses!A%d:G%d", start, len(f.rows)),
		}})
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var n int
		fmt.Sscanf(path[strings.LastIndex(path, "!A")+2:], "%d", &n)
		f.rows[n-1] = body.Values[0]
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": "ok"})
	case r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(map[string]any{"sheets": []any{
			map[string]any{"properties": map[string]any{"sheetId": 0, "title": "Other"}},
			map[string]any{"properties": map[string]any{"sheetId": 7, "title": "Expenses"}},
		}})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		rg := body.Requests[0].DeleteDimension.Range
		f.rows = append(f.rows[:rg.StartIndex], f.rows[rg.EndIndex:]...)
		w.Write([]byte(`{}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
	}
}

func newTestClient(t *testing.T) (*Client, *fakeSheet) {
	t.Helper()
	fake := &fakeSheet{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), "sheet-id", "Expenses",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, fake
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "Expenses")
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background(), "sheet-id", "Expenses")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestAppendRowWritesHeaderThenUpserts(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	row := core.ExportRow{ID: "a", Date: "2024-01-01", Category: "Bus", Description: "A → B (2 tickets)", Amount: 5, Status: "Pending"}
	ref, err := c.AppendRow(ctx, row)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "Expenses!A1:G2" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if len(fake.rows) != 2 || fake.rows[0][0] != "ID" || fake.rows[1][0] != "a" {
		t.Fatalf("unexpected rows: %v", fake.rows)
	}

	if _, err := c.AppendRow(ctx, core.ExportRow{ID: "b", Amount: 3}); err != nil {
		t.Fatalf("append b: %v", err)
	}

	row.Status = "Claimed"
	ref, err = c.AppendRow(ctx, row)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ref != "Expenses!A2:G2" {
		t.Fatalf("unexpected update ref %q", ref)
	}
	if len(fake.rows) != 3 || fake.rows[1][6] != "Claimed" {
		t.Fatalf("row not updated in place: %v", fake.rows)
	}
}

func TestDeleteRow(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := c.AppendRow(ctx, core.ExportRow{ID: id}); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	if err := c.DeleteRow(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fake.rows) != 3 || fake.rows[1][0] != "a" || fake.rows[2][0] != "c" {
		t.Fatalf("unexpected rows after delete: %v", fake.rows)
	}
	if err := c.DeleteRow(ctx, "zzz"); err != nil {
		t.Fatalf("missing id should be a no-op: %v", err)
	}
}

func TestRowNumber(t *testing.T) {
	ids := []string{"ID", "x", "y"}
	if n := rowNumber(ids, "y"); n != 3 {
		t.Fatalf("rowNumber = %d, want 3", n)
	}
	if n := rowNumber(ids, "ID"); n != 0 {
		t.Fatalf("header must not match, got %d", n)
	}
	if n := rowNumber(nil, "x"); n != 0 {
		t.Fatalf("empty sheet, got %d", n)
	}
}

func TestConcurrentWritesKeepOneRowPerID(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	ids := []string{"r0", "r1", "r2", "r3", "dup", "dup"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := c.AppendRow(ctx, core.ExportRow{ID: id, Status: "Pending"}); err != nil {
				t.Errorf("append %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	count := func() map[string]int {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		seen := make(map[string]int)
		for _, row := range fake.rows {
			seen[fmt.Sprint(row[0])]++
		}
		return seen
	}
	seen := count()
	if seen["ID"] != 1 {
		t.Fatalf("header rows = %d, want 1 (%v)", seen["ID"], fake.rows)
	}
	for _, id := range []string{"r0", "r1", "r2", "r3", "dup"} {
		if seen[id] != 1 {
			t.Fatalf("rows for %s = %d, want 1", id, seen[id])
		}
	}

	// A delete shifting rows must not redirect a concurrent in-place update.
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := c.DeleteRow(ctx, "r0"); err != nil {
			t.Errorf("delete: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := c.AppendRow(ctx, core.ExportRow{ID: "r3", Status: "Claimed"}); err != nil {
			t.Errorf("update: %v", err)
		}
	}()
	wg.Wait()

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.rows) != 6 {
		t.Fatalf("rows after delete = %d, want 6: %v", len(fake.rows), fake.rows)
	}
	for _, row := range fake.rows {
		switch row[0] {
		case "r0":
			t.Fatalf("deleted row still present: %v", fake.rows)
		case "r3":
			if row[6] != "Claimed" {
				t.Fatalf("r3 not updated: %v", row)
			}
		default:
			if row[0] != "ID" && row[6] != "Pending" {
				t.Fatalf("update landed on the wrong row: %v", row)
			}
		}
	}
}
