package store

import (
	"context"
	"errors"

	"xpenso/internal/core"
)

// ErrNotFound is returned when no expense has the requested ID.
var ErrNotFound = errors.New("expense not found")

// Ports for the expense persistence adapters.
type (
	// ExpenseLister returns every stored record, newest date first.
	ExpenseLister interface {
		ListAll(ctx context.Context) ([]core.Expense, error)
	}

	ExpenseReader interface {
		Get(ctx context.Context, id string) (core.Expense, error)
	}

	// ExpenseWriter persists a new record and returns it as stored.
	ExpenseWriter interface {
		Create(ctx context.Context, e core.Expense) (core.Expense, error)
	}

	ClaimUpdater interface {
		SetClaimed(ctx context.Context, id string, claimed bool) (core.Expense, error)
	}

	// ExpenseDeleter removes a record and returns what was removed.
	ExpenseDeleter interface {
		Delete(ctx context.Context, id string) (core.Expense, error)
	}

	Store interface {
		ExpenseLister
		ExpenseReader
		ExpenseWriter
		ClaimUpdater
		ExpenseDeleter
	}
)
