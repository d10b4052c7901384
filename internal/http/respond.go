package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finshare/internal/core"
	"finshare/internal/listing"
	"finshare/internal/log"
	"finshare/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeErrorStatus(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// writeError maps domain errors onto HTTP statuses. Anything unmapped
// is a 500 that hides the underlying error from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeErrorStatus(w, http.StatusNotFound, err)
	case errors.Is(err, core.ErrPermissionDenied):
		writeErrorStatus(w, http.StatusForbidden, err)
	case errors.Is(err, core.ErrInsufficientBalance),
		errors.Is(err, core.ErrAccountNotEmpty),
		errors.Is(err, core.ErrBillSettled),
		errors.Is(err, core.ErrGoalNotActive),
		errors.Is(err, core.ErrOwnerImmutable):
		writeErrorStatus(w, http.StatusConflict, err)
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidAccountType),
		errors.Is(err, core.ErrInvalidRole),
		errors.Is(err, core.ErrInvalidPermission),
		errors.Is(err, core.ErrInvalidTransactionType),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidGoalState),
		errors.Is(err, core.ErrSameAccount),
		errors.Is(err, core.ErrNoBillMember):
		writeErrorStatus(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, errBadBody), errors.Is(err, errBadID):
		writeErrorStatus(w, http.StatusBadRequest, err)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
		writeErrorStatus(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

// listEnvelope is the uniform list response: the page window, its
// meta, and the pager buttons (listing.Ellipsis marks elided runs).
type listEnvelope[T any] struct {
	Items []T           `json:"items"`
	Meta  *listing.Meta `json:"meta"`
	Pages []int         `json:"pages,omitempty"`
}

// respondList pages the full result set and writes the envelope. The
// requested page is clamped into range first.
func respondList[T any](w http.ResponseWriter, items []T, page, pageSize int) {
	total := len(items)
	totalPages := listing.TotalPages(total, pageSize)
	page = listing.ClampPage(page, totalPages)

	window := listing.Slice(items, page, pageSize)
	if window == nil {
		window = []T{}
	}
	writeJSON(w, http.StatusOK, listEnvelope[T]{
		Items: window,
		Meta:  listing.PageMeta(page, pageSize, total),
		Pages: listing.Buttons(page, totalPages),
	})
}
