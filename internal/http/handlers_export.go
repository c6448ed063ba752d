package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"xpenso/internal/core"
	"xpenso/internal/export"
	"xpenso/internal/log"
)

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "xlsx", export.ContentTypeXLSX, func(buf *bytes.Buffer, rows []core.ExportRow) error {
		return export.WriteXLSX(buf, rows, export.Total(rows))
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "csv", export.ContentTypeCSV, func(buf *bytes.Buffer, rows []core.ExportRow) error {
		return export.WriteCSV(buf, rows)
	})
}

// serveExport renders the current view into memory first so a failed
// export still gets a proper error status.
func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(*bytes.Buffer, []core.ExportRow) error) {
	all, err := s.expenses(r.Context())
	if err != nil {
		s.writeServiceError(w, r, log.OpExport, err)
		return
	}

	rows := core.ExportRows(core.View(all, ParseCriteria(r.URL.Query())))
	var buf bytes.Buffer
	if err := write(&buf, rows); err != nil {
		s.writeServiceError(w, r, log.OpExport, fmt.Errorf("render %s export: %w", ext, err))
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Export generated",
		log.FieldOperation, log.OpExport,
		log.FieldResultCount, len(rows),
		"format", ext)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(s.now(), ext)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
