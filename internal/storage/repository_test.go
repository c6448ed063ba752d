package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"xpenso/internal/core"
	"xpenso/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.Create(ctx, core.Expense{
		Date:      "2024-02-10",
		Time:      "08:15",
		Category:  core.Bus,
		Total:     "7.50",
		Count:     "3",
		Price:     "2.50",
		FromPlace: "Depot",
		ToPlace:   "Center",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp: %+v", created)
	}

	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Total != "7.50" || got.Count != "3" || got.FromPlace != "Depot" || got.Claimed {
		t.Fatalf("unexpected record: %+v", got)
	}

	updated, err := repo.SetClaimed(ctx, created.ID, true)
	if err != nil || !updated.Claimed {
		t.Fatalf("set claimed: %+v err=%v", updated, err)
	}

	removed, err := repo.Delete(ctx, created.ID)
	if err != nil || removed.ID != created.ID || !removed.Claimed {
		t.Fatalf("delete: %+v err=%v", removed, err)
	}
	if n, _ := repo.Count(ctx); n != 0 {
		t.Fatalf("expected empty table, got %d rows", n)
	}
}

func TestSQLiteRepositoryPreservesLexicalNumbers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.Create(ctx, core.Expense{Date: "2024-01-01", Category: "Hotel", Total: "12abc"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, _ := repo.Get(ctx, created.ID)
	if got.Total != "12abc" || got.Total.Float() != 12 || got.Category != "Hotel" {
		t.Fatalf("value not preserved: %+v", got)
	}
}

func TestSQLiteRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.SetClaimed(ctx, "nope", true); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("set claimed: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Delete(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}
	if err := repo.MarkSynced(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("mark synced: expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRepositoryListAllDateDesc(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, d := range []string{"2024-01-05", "2024-03-01", "2024-02-14"} {
		if _, err := repo.Create(ctx, core.Expense{Date: d, Category: core.Others, ItemName: d, Total: "1"}); err != nil {
			t.Fatalf("create %s: %v", d, err)
		}
	}

	list, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2024-03-01", "2024-02-14", "2024-01-05"}
	for i, e := range list {
		if e.Date != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, e.Date, want[i])
		}
	}
}

func TestSQLiteRepositorySyncLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a, _ := repo.Create(ctx, core.Expense{Date: "2024-01-01", Category: core.Food, Persons: "1", Total: "5"})
	b, _ := repo.Create(ctx, core.Expense{Date: "2024-01-02", Category: core.Food, Persons: "2", Total: "9"})

	pending, err := repo.PendingSync(ctx, 10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("pending: %d err=%v", len(pending), err)
	}

	if err := repo.MarkSynced(ctx, a.ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, b.ID); err != nil {
		t.Fatalf("mark error: %v", err)
	}
	if status, _ := repo.SyncStatus(ctx, b.ID); status != SyncError {
		t.Fatalf("status = %q, want %q", status, SyncError)
	}

	pending, _ = repo.PendingSync(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected nothing pending, got %d", len(pending))
	}

	// Claiming puts the row back in the queue.
	if _, err := repo.SetClaimed(ctx, a.ID, true); err != nil {
		t.Fatalf("set claimed: %v", err)
	}
	pending, _ = repo.PendingSync(ctx, 1)
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Fatalf("expected %s pending again, got %+v", a.ID, pending)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
