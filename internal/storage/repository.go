package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"xpenso/internal/core"
	"xpenso/internal/store"

	_ "modernc.org/sqlite"
)

// Sync states of a row with respect to the spreadsheet mirror.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between the server goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListAll implements store.ExpenseLister
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, len(rows))
	for i, row := range rows {
		out[i] = toExpense(row)
	}
	return out, nil
}

// Get implements store.ExpenseReader
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, wrapNotFound("get expense", id, err)
	}
	return toExpense(row), nil
}

// Create implements store.ExpenseWriter
func (r *SQLiteRepository) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = core.NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}

	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		ID:        e.ID,
		Date:      e.Date,
		Time:      e.Time,
		Category:  string(e.Category),
		Total:     string(e.Total),
		Claimed:   e.Claimed,
		Km:        string(e.Km),
		Count:     string(e.Count),
		Persons:   string(e.Persons),
		Price:     string(e.Price),
		FromPlace: e.FromPlace,
		ToPlace:   e.ToPlace,
		ItemName:  e.ItemName,
		BillURL:   e.BillURL,
		CreatedAt: formatTimestamp(e.CreatedAt),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"category", row.Category,
		"date", row.Date,
		"total", row.Total)

	return toExpense(row), nil
}

// SetClaimed implements store.ClaimUpdater. The row goes back to pending so
// the mirror picks up the new status.
func (r *SQLiteRepository) SetClaimed(ctx context.Context, id string, claimed bool) (core.Expense, error) {
	row, err := r.queries.SetExpenseClaimed(ctx, id, claimed, formatTimestamp(r.now().UTC()))
	if err != nil {
		return core.Expense{}, wrapNotFound("set claimed", id, err)
	}
	return toExpense(row), nil
}

// Delete implements store.ExpenseDeleter
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (core.Expense, error) {
	row, err := r.queries.DeleteExpense(ctx, id)
	if err != nil {
		return core.Expense{}, wrapNotFound("delete expense", id, err)
	}
	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	return toExpense(row), nil
}

// PendingSync returns up to limit records not yet mirrored, oldest change first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.queries.GetPendingSyncExpenses(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	out := make([]core.Expense, len(rows))
	for i, row := range rows {
		out[i] = toExpense(row)
	}
	return out, nil
}

// MarkSynced marks an expense as successfully synced
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if err := r.markSyncStatus(ctx, id, SyncSynced); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

// MarkSyncError marks an expense as having sync errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if err := r.markSyncStatus(ctx, id, SyncError); err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}

// SyncStatus returns the mirror state of a single row.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, id string) (string, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if err != nil {
		return "", wrapNotFound("get sync status", id, err)
	}
	return row.SyncStatus, nil
}

// Count returns the number of stored expenses.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) markSyncStatus(ctx context.Context, id, status string) error {
	n, err := r.queries.MarkExpenseSyncStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, store.ErrNotFound)
	}
	return nil
}

func wrapNotFound(op, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, id, store.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}

func toExpense(row ExpenseRow) core.Expense {
	return core.Expense{
		ID:        row.ID,
		Date:      row.Date,
		Time:      row.Time,
		Category:  core.Category(row.Category),
		Total:     core.Numeric(row.Total),
		Claimed:   row.Claimed,
		Km:        core.Numeric(row.Km),
		Count:     core.Numeric(row.Count),
		Persons:   core.Numeric(row.Persons),
		Price:     core.Numeric(row.Price),
		FromPlace: row.FromPlace,
		ToPlace:   row.ToPlace,
		ItemName:  row.ItemName,
		BillURL:   row.BillURL,
		CreatedAt: parseTimestamp(row.CreatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var _ store.Store = (*SQLiteRepository)(nil)
