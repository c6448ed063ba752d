package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// ExpenseRow mirrors one row of the expenses table.
type ExpenseRow struct {
	ID         string
	Date       string
	Time       string
	Category   string
	Total      string
	Claimed    bool
	Km         string
	Count      string
	Persons    string
	Price      string
	FromPlace  string
	ToPlace    string
	ItemName   string
	BillURL    string
	SyncStatus string
	CreatedAt  string
	UpdatedAt  string
}

const expenseColumns = `id, date, time, category, total, claimed, km, count, persons, price,
	from_place, to_place, item_name, bill_url, sync_status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(s rowScanner) (ExpenseRow, error) {
	var r ExpenseRow
	err := s.Scan(&r.ID, &r.Date, &r.Time, &r.Category, &r.Total, &r.Claimed,
		&r.Km, &r.Count, &r.Persons, &r.Price, &r.FromPlace, &r.ToPlace,
		&r.ItemName, &r.BillURL, &r.SyncStatus, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func scanExpenses(rows *sql.Rows) ([]ExpenseRow, error) {
	defer rows.Close()
	var items []ExpenseRow
	for rows.Next() {
		r, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createExpense = `INSERT INTO expenses (` + expenseColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	ID        string
	Date      string
	Time      string
	Category  string
	Total     string
	Claimed   bool
	Km        string
	Count     string
	Persons   string
	Price     string
	FromPlace string
	ToPlace   string
	ItemName  string
	BillURL   string
	CreatedAt string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (ExpenseRow, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.ID, arg.Date, arg.Time, arg.Category, arg.Total, arg.Claimed,
		arg.Km, arg.Count, arg.Persons, arg.Price, arg.FromPlace, arg.ToPlace,
		arg.ItemName, arg.BillURL, arg.CreatedAt, arg.CreatedAt)
	return scanExpense(row)
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id string) (ExpenseRow, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

const listExpenses = `SELECT ` + expenseColumns + ` FROM expenses ORDER BY date DESC, created_at DESC`

func (q *Queries) ListExpenses(ctx context.Context) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

const setExpenseClaimed = `UPDATE expenses
SET claimed = ?, sync_status = 'pending', updated_at = ?
WHERE id = ?
RETURNING ` + expenseColumns

func (q *Queries) SetExpenseClaimed(ctx context.Context, id string, claimed bool, updatedAt string) (ExpenseRow, error) {
	return scanExpense(q.db.QueryRowContext(ctx, setExpenseClaimed, claimed, updatedAt, id))
}

const deleteExpense = `DELETE FROM expenses WHERE id = ? RETURNING ` + expenseColumns

func (q *Queries) DeleteExpense(ctx context.Context, id string) (ExpenseRow, error) {
	return scanExpense(q.db.QueryRowContext(ctx, deleteExpense, id))
}

const getPendingSyncExpenses = `SELECT ` + expenseColumns + ` FROM expenses
WHERE sync_status = 'pending'
ORDER BY updated_at ASC
LIMIT ?`

func (q *Queries) GetPendingSyncExpenses(ctx context.Context, limit int64) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncExpenses, limit)
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

const markExpenseSyncStatus = `UPDATE expenses SET sync_status = ? WHERE id = ?`

func (q *Queries) MarkExpenseSyncStatus(ctx context.Context, id, status string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markExpenseSyncStatus, status, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countExpenses = `SELECT COUNT(*) FROM expenses`

func (q *Queries) CountExpenses(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countExpenses).Scan(&n)
	return n, err
}
