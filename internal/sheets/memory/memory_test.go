package memory

import (
	"context"
	"testing"

	"xpenso/internal/core"
)

func TestWriterUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	w := New()

	ref, err := w.AppendRow(ctx, core.ExportRow{ID: "a", Amount: 1, Status: "Pending"})
	if err != nil || ref != "mem:1" {
		t.Fatalf("append a: ref=%q err=%v", ref, err)
	}
	if ref, _ := w.AppendRow(ctx, core.ExportRow{ID: "b", Amount: 2}); ref != "mem:2" {
		t.Fatalf("append b: ref=%q", ref)
	}

	ref, err = w.AppendRow(ctx, core.ExportRow{ID: "a", Amount: 1, Status: "Claimed"})
	if err != nil || ref != "mem:1" {
		t.Fatalf("replace a: ref=%q err=%v", ref, err)
	}
	rows := w.Rows()
	if len(rows) != 2 || rows[0].Status != "Claimed" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	if err := w.DeleteRow(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := w.DeleteRow(ctx, "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if rows := w.Rows(); len(rows) != 1 || rows[0].ID != "b" {
		t.Fatalf("unexpected rows after delete: %+v", rows)
	}
}

func TestWriterRejectsEmptyID(t *testing.T) {
	if _, err := New().AppendRow(context.Background(), core.ExportRow{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}
