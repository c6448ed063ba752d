package http

import (
	"net/http"

	"xpenso/internal/core"
	"xpenso/internal/log"
)

type overviewResponse struct {
	Count        int     `json:"count"`
	Total        float64 `json:"total"`
	Claimed      float64 `json:"claimed"`
	Pending      float64 `json:"pending"`
	TotalKm      float64 `json:"total_km"`
	UnclaimedKm  float64 `json:"unclaimed_km"`
	TotalLabel   string  `json:"total_label"`
	ClaimedLabel string  `json:"claimed_label"`
	PendingLabel string  `json:"pending_label"`
}

// chartSeries is a labelled series ready for a chart widget.
type chartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type analyticsResponse struct {
	ByCategory chartSeries `json:"byCategory"`
	ByDate     chartSeries `json:"byDate"`
	Claimed    float64     `json:"claimed"`
	Pending    float64     `json:"pending"`
}

// handleOverview summarises every stored record.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	all, err := s.expenses(r.Context())
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}

	sum := core.Summarize(all)
	writeJSON(w, http.StatusOK, overviewResponse{
		Count:        sum.Count,
		Total:        sum.Total,
		Claimed:      sum.Claimed,
		Pending:      sum.Pending,
		TotalKm:      sum.TotalKm,
		UnclaimedKm:  sum.UnclaimedKm,
		TotalLabel:   core.FormatAmount(sum.Total),
		ClaimedLabel: core.FormatAmount(sum.Claimed),
		PendingLabel: core.FormatAmount(sum.Pending),
	})
}

// handleAnalytics returns chart data for the records matching the query.
// With no filters this is every record.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	all, err := s.expenses(r.Context())
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}

	sum := core.Summarize(core.View(all, ParseCriteria(r.URL.Query())))
	resp := analyticsResponse{
		ByCategory: chartSeries{Labels: make([]string, 0, len(core.Categories)), Values: make([]float64, 0, len(core.Categories))},
		ByDate:     chartSeries{Labels: make([]string, 0, len(sum.ByDate)), Values: make([]float64, 0, len(sum.ByDate))},
		Claimed:    sum.Claimed,
		Pending:    sum.Pending,
	}
	for _, c := range core.Categories {
		resp.ByCategory.Labels = append(resp.ByCategory.Labels, string(c))
		resp.ByCategory.Values = append(resp.ByCategory.Values, sum.CategoryTotal(c))
	}
	for _, d := range sum.ByDate {
		resp.ByDate.Labels = append(resp.ByDate.Labels, d.Date)
		resp.ByDate.Values = append(resp.ByDate.Values, d.Amount)
	}
	writeJSON(w, http.StatusOK, resp)
}
