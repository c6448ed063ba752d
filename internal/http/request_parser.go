package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"xpenso/internal/blob"
	"xpenso/internal/core"
	"xpenso/internal/services"
)

const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = blob.MaxSize + 1<<20
	billField        = "bill"
)

// ParseCriteria reads the list filters from a query string. Unknown status
// values disable the status filter; unknown sort keys fall back to date_desc.
func ParseCriteria(q url.Values) core.Criteria {
	return core.Criteria{
		Search:   sanitizeInput(q.Get("search")),
		Category: core.Category(sanitizeInput(q.Get("category"))),
		Status:   core.ParseStatus(q.Get("status")),
		From:     strings.TrimSpace(q.Get("from")),
		To:       strings.TrimSpace(q.Get("to")),
		Sort:     core.ParseSortKey(q.Get("sort")),
	}
}

// parseNewExpense reads a create request, either a JSON body or a
// multipart form with an optional bill file. The returned bill, when
// non-nil, must be closed by the caller.
func parseNewExpense(w http.ResponseWriter, r *http.Request) (core.Expense, *services.Bill, io.Closer, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		return parseExpenseForm(w, r)
	case "application/json", "":
		e, err := decodeExpenseJSON(w, r)
		return e, nil, nil, err
	default:
		return core.Expense{}, nil, nil, fmt.Errorf("%w: unsupported content type %q", errBadRequest, mediaType)
	}
}

func decodeExpenseJSON(w http.ResponseWriter, r *http.Request) (core.Expense, error) {
	var e core.Expense
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(&e); err != nil {
		return core.Expense{}, bodyError(err)
	}
	e.ItemName = sanitizeInput(e.ItemName)
	e.FromPlace = sanitizeInput(e.FromPlace)
	e.ToPlace = sanitizeInput(e.ToPlace)
	return e, nil
}

func parseExpenseForm(w http.ResponseWriter, r *http.Request) (core.Expense, *services.Bill, io.Closer, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		return core.Expense{}, nil, nil, bodyError(err)
	}
	form := r.MultipartForm.Value
	get := func(key string) string {
		if v := form[key]; len(v) > 0 {
			return sanitizeInput(v[0])
		}
		return ""
	}

	e := core.Expense{
		Date:      get("date"),
		Time:      get("time"),
		Category:  core.Category(get("category")),
		Total:     core.Numeric(get("total")),
		Claimed:   parseBool(get("claimed")),
		Km:        core.Numeric(get("km")),
		Count:     core.Numeric(get("count")),
		Persons:   core.Numeric(get("persons")),
		Price:     core.Numeric(get("price")),
		FromPlace: get("from_place"),
		ToPlace:   get("to_place"),
		ItemName:  get("item_name"),
	}

	file, header, err := r.FormFile(billField)
	if errors.Is(err, http.ErrMissingFile) {
		return e, nil, nil, nil
	}
	if err != nil {
		return core.Expense{}, nil, nil, fmt.Errorf("%w: read bill: %v", errBadRequest, err)
	}
	return e, billFromPart(file, header), file, nil
}

func billFromPart(file multipart.File, header *multipart.FileHeader) *services.Bill {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			contentType = byExt
		}
	}
	return &services.Bill{
		Filename:    header.Filename,
		ContentType: contentType,
		Body:        file,
	}
}

type claimedRequest struct {
	Claimed *bool `json:"claimed"`
}

func decodeClaimed(w http.ResponseWriter, r *http.Request) (bool, error) {
	var req claimedRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		return false, bodyError(err)
	}
	if req.Claimed == nil {
		return false, fmt.Errorf("%w: claimed is required", errBadRequest)
	}
	return *req.Claimed, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: request body exceeds %d bytes", errTooLarge, tooLarge.Limit)
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: empty request body", errBadRequest)
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

func parseBool(s string) bool {
	if strings.EqualFold(s, "on") {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// sanitizeInput trims s and drops control characters other than tab and
// line breaks.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
