package http

import (
	"net/http"
	"strings"

	"xpenso/internal/core"
	"xpenso/internal/log"
)

// expenseItem is a stored record plus the display fields the list shows.
type expenseItem struct {
	core.Expense
	Description string `json:"description"`
	DisplayDate string `json:"display_date"`
	DisplayTime string `json:"display_time"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
}

func newExpenseItem(e core.Expense) expenseItem {
	return expenseItem{
		Expense:     e,
		Description: core.Describe(e),
		DisplayDate: core.FormatDate(e.Date),
		DisplayTime: core.FormatTime(e.Time),
		Amount:      core.FormatAmount(e.Total.Float()),
		Status:      core.StatusLabel(e.Claimed),
	}
}

func newExpenseItems(list []core.Expense) []expenseItem {
	items := make([]expenseItem, 0, len(list))
	for _, e := range list {
		items = append(items, newExpenseItem(e))
	}
	return items
}

type listResponse struct {
	Items    []expenseItem `json:"items"`
	Count    int           `json:"count"`
	Label    string        `json:"label"`
	Criteria core.Criteria `json:"criteria"`
	Filtered bool          `json:"filtered"`
	Summary  core.Summary  `json:"summary"`
}

// handleListExpenses returns the filtered, sorted view with its summary.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	all, err := s.expenses(r.Context())
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}

	criteria := ParseCriteria(r.URL.Query())
	view := core.View(all, criteria)

	writeJSON(w, http.StatusOK, listResponse{
		Items:    newExpenseItems(view),
		Count:    len(view),
		Label:    core.ResultsLabel(len(view)),
		Criteria: criteria,
		Filtered: !criteria.IsEmpty(),
		Summary:  core.Summarize(view),
	})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseItem(e))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	e, bill, closer, err := parseNewExpense(w, r)
	if err != nil {
		s.writeServiceError(w, r, log.OpCreate, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	created, err := s.svc.Create(r.Context(), e, bill)
	if err != nil {
		s.writeServiceError(w, r, log.OpCreate, err)
		return
	}
	s.invalidate()

	w.Header().Set("Location", "/api/expenses/"+created.ID)
	writeJSON(w, http.StatusCreated, newExpenseItem(created))
}

func (s *Server) handleSetClaimed(w http.ResponseWriter, r *http.Request) {
	claimed, err := decodeClaimed(w, r)
	if err != nil {
		s.writeServiceError(w, r, log.OpUpdate, err)
		return
	}

	updated, err := s.svc.SetClaimed(r.Context(), r.PathValue("id"), claimed)
	if err != nil {
		s.writeServiceError(w, r, log.OpUpdate, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusOK, newExpenseItem(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, log.OpDelete, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}
