package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"xpenso/internal/amqp"
	"xpenso/internal/blob"
	"xpenso/internal/core"
	"xpenso/internal/log"
	"xpenso/internal/store"
)

// EventPublisher is the outbound side of the expense event stream.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// Bill is an uploaded receipt attached to a new expense.
type Bill struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ExpenseService orchestrates expense operations across the store, the bill
// storage and the event stream. Bills and events are optional.
type ExpenseService struct {
	store  store.Store
	bills  blob.Store
	events EventPublisher
	logger *log.Logger
	now    func() time.Time
}

func NewExpenseService(st store.Store, bills blob.Store, events EventPublisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExpenseService{
		store:  st,
		bills:  bills,
		events: events,
		logger: logger.WithComponent(log.ComponentExpense),
		now:    time.Now,
	}
}

// ListAll returns every stored record.
func (s *ExpenseService) ListAll(ctx context.Context) ([]core.Expense, error) {
	return s.store.ListAll(ctx)
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	return s.store.Get(ctx, id)
}

// Create validates e, fills in the total from price and quantity when it was
// left empty, stores the bill and persists the record.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense, bill *Bill) (core.Expense, error) {
	e = normalize(e)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.Total.IsEmpty() {
		e.Total = core.ComputeTotal(e)
	}
	e.ID = ""
	e.BillURL = ""

	if bill != nil && bill.Body != nil {
		if s.bills == nil {
			return core.Expense{}, errors.New("bill storage not configured")
		}
		url, err := s.bills.Put(ctx, blob.ObjectName(s.now(), bill.Filename), bill.ContentType, bill.Body)
		if err != nil {
			return core.Expense{}, fmt.Errorf("store bill: %w", err)
		}
		e.BillURL = url
	}

	created, err := s.store.Create(ctx, e)
	if err != nil {
		if e.BillURL != "" {
			s.removeBill(ctx, e.BillURL)
		}
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.logEvent(ctx, log.OpCreate, created)
	s.publish(ctx, created.ID, amqp.EventCreated, created.BillURL)
	return created, nil
}

// SetClaimed flips the claim status of one record.
func (s *ExpenseService) SetClaimed(ctx context.Context, id string, claimed bool) (core.Expense, error) {
	updated, err := s.store.SetClaimed(ctx, id, claimed)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.logEvent(ctx, log.OpUpdate, updated)
	s.publish(ctx, updated.ID, amqp.EventUpdated, updated.BillURL)
	return updated, nil
}

// Delete removes the record and then its bill; a bill that cannot be
// removed is logged and left behind.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if removed.BillURL != "" {
		s.removeBill(ctx, removed.BillURL)
	}
	s.logEvent(ctx, log.OpDelete, removed)
	s.publish(ctx, removed.ID, amqp.EventDeleted, removed.BillURL)
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, id string, kind amqp.EventKind, billURL string) {
	if s.events == nil {
		s.logger.DebugContext(ctx, "Event publisher not available, skipping event", log.FieldExpenseID, id)
		return
	}
	if err := s.events.PublishExpenseEvent(ctx, amqp.NewExpenseEvent(id, kind, billURL)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			log.FieldExpenseID, id,
			log.FieldEventKind, string(kind),
			log.FieldError, err.Error())
	}
}

func (s *ExpenseService) removeBill(ctx context.Context, url string) {
	if s.bills == nil {
		return
	}
	if err := s.bills.Delete(ctx, url); err != nil {
		s.logger.WarnContext(ctx, "Failed to remove bill",
			log.FieldBillURL, url,
			log.FieldError, err.Error())
	}
}

func (s *ExpenseService) logEvent(ctx context.Context, op string, e core.Expense) {
	log.NewStructuredLogger(s.logger).LogExpenseEvent(ctx, op, e.ID, string(e.Category), e.Date, e.Total.Float(), e.Claimed)
}

func normalize(e core.Expense) core.Expense {
	e.Date = strings.TrimSpace(e.Date)
	e.Time = strings.TrimSpace(e.Time)
	e.Category = core.Category(strings.TrimSpace(string(e.Category)))
	e.FromPlace = strings.TrimSpace(e.FromPlace)
	e.ToPlace = strings.TrimSpace(e.ToPlace)
	e.ItemName = strings.TrimSpace(e.ItemName)
	return e
}

// IsValidationError reports whether err came from rejecting user input.
func IsValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDate, core.ErrInvalidTime, core.ErrInvalidCategory,
		core.ErrInvalidAmount, core.ErrMissingField,
		blob.ErrUnsupportedType, blob.ErrTooLarge,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err means the expense does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
