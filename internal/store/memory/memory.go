package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"xpenso/internal/core"
	"xpenso/internal/store"
)

// SeedFile is the name of the optional JSON seed read by NewFromDir.
const SeedFile = "expenses.json"

type Store struct {
	mu    sync.Mutex
	items []core.Expense
	now   func() time.Time
}

func New(seed []core.Expense) *Store {
	s := &Store{now: time.Now}
	for _, e := range seed {
		if e.ID == "" {
			e.ID = core.NewID()
		}
		s.items = append(s.items, e)
	}
	return s
}

// NewFromDir seeds the store from base/expenses.json when present.
// A missing file yields an empty store; a malformed one is an error.
func NewFromDir(base string) (*Store, error) {
	data, err := os.ReadFile(filepath.Join(base, SeedFile))
	if os.IsNotExist(err) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed []core.Expense
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return New(seed), nil
}

// ListAll returns a copy of every record ordered by date descending.
func (s *Store) ListAll(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	out := slices.Clone(s.items)
	s.mu.Unlock()
	slices.SortStableFunc(out, func(a, b core.Expense) int {
		return strings.Compare(b.Date, a.Date)
	})
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("get %s: %w", id, store.ErrNotFound)
	}
	return s.items[i], nil
}

// Create stores e, assigning an ID and creation time when missing.
func (s *Store) Create(_ context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = core.NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(e.ID) >= 0 {
		return core.Expense{}, fmt.Errorf("create %s: duplicate id", e.ID)
	}
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) SetClaimed(_ context.Context, id string, claimed bool) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("set claimed %s: %w", id, store.ErrNotFound)
	}
	s.items[i].Claimed = claimed
	return s.items[i], nil
}

func (s *Store) Delete(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("delete %s: %w", id, store.ErrNotFound)
	}
	removed := s.items[i]
	s.items = slices.Delete(s.items, i, i+1)
	return removed, nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(e core.Expense) bool { return e.ID == id })
}

var _ store.Store = (*Store)(nil)
