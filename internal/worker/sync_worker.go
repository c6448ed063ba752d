package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"xpenso/internal/amqp"
	"xpenso/internal/core"
	"xpenso/internal/log"
	"xpenso/internal/sheets"
	"xpenso/internal/store"
)

// SyncStore is the slice of the SQLite repository the mirror needs.
type SyncStore interface {
	Get(ctx context.Context, id string) (core.Expense, error)
	PendingSync(ctx context.Context, limit int) ([]core.Expense, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

// SyncWorker keeps the spreadsheet mirror in step with the expense store.
type SyncWorker struct {
	store       SyncStore
	rows        sheets.RowWriter
	batchSize   int
	concurrency int
	logger      *log.Logger
}

func NewSyncWorker(st SyncStore, rows sheets.RowWriter, batchSize, concurrency int, logger *log.Logger) *SyncWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		store:       st,
		rows:        rows,
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent applies one expense event to the mirror. A returned error
// makes the consumer requeue the message.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	w.logger.InfoContext(ctx, "Processing expense event",
		log.FieldExpenseID, ev.ID,
		log.FieldEventKind, string(ev.Kind))

	switch ev.Kind {
	case amqp.EventCreated, amqp.EventUpdated:
		e, err := w.store.Get(ctx, ev.ID)
		if errors.Is(err, store.ErrNotFound) {
			// Deleted before this event was consumed.
			return w.deleteRow(ctx, ev.ID)
		}
		if err != nil {
			return fmt.Errorf("get expense from storage: %w", err)
		}
		return w.syncExpense(ctx, e)
	case amqp.EventDeleted:
		return w.deleteRow(ctx, ev.ID)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

// ProcessPending mirrors one batch of pending records in parallel. Records
// that fail are marked with a sync error and reported in the returned error.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending expenses", log.FieldResultCount, len(pending))

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, e := range pending {
		g.Go(func() error {
			if err := w.syncExpense(gctx, e); err != nil {
				failed.Add(1)
				w.logger.ErrorContext(gctx, "Failed to sync expense",
					log.FieldExpenseID, e.ID,
					log.FieldError, err.Error())
				if err := w.store.MarkSyncError(gctx, e.ID); err != nil {
					w.logger.ErrorContext(gctx, "Failed to mark sync error",
						log.FieldExpenseID, e.ID,
						log.FieldError, err.Error())
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d pending expenses failed to sync", n, len(pending))
	}
	w.logger.InfoContext(ctx, "Pending expenses synced", log.FieldResultCount, len(pending))
	return nil
}

func (w *SyncWorker) syncExpense(ctx context.Context, e core.Expense) error {
	ref, err := w.rows.AppendRow(ctx, core.ExportRowFor(e))
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	if err := w.store.MarkSynced(ctx, e.ID); err != nil {
		// The row is written; the next pending pass overwrites it in place.
		w.logger.WarnContext(ctx, "Failed to mark expense as synced",
			log.FieldExpenseID, e.ID,
			log.FieldError, err.Error())
	}
	w.logger.InfoContext(ctx, "Synced expense to sheet",
		log.FieldExpenseID, e.ID,
		log.FieldSheetsRef, ref)
	return nil
}

func (w *SyncWorker) deleteRow(ctx context.Context, id string) error {
	if err := w.rows.DeleteRow(ctx, id); err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	w.logger.InfoContext(ctx, "Deleted expense from sheet", log.FieldExpenseID, id)
	return nil
}
