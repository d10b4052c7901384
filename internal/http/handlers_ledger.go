package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"finshare/internal/core"
	"finshare/internal/listing"
	"finshare/internal/storage"
)

type transactionRequest struct {
	AccountID  int64  `json:"account_id"`
	CategoryID int64  `json:"category_id"`
	BudgetID   *int64 `json:"budget_id"`
	Type       string `json:"type"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Note       string `json:"note"`
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date := time.Now().UTC()
	if req.Date != "" {
		date, err = parseDay(req.Date)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	created, err := s.svc.Transactions.RecordTransaction(r.Context(), core.Transaction{
		UserID:     uid,
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		BudgetID:   req.BudgetID,
		Type:       core.TransactionType(req.Type),
		Amount:     amount,
		Date:       date,
		Note:       sanitizeInput(req.Note),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateDashboard(uid)
	writeJSON(w, http.StatusCreated, viewTransaction(created))
}

type importResponse struct {
	Imported int               `json:"imported"`
	Items    []transactionView `json:"items"`
}

// handleImportTransactions bulk-records transactions from a list
// payload, typically a page exported from another instance. The body
// may be a bare JSON array or the {items, meta} envelope the list
// endpoints produce; both shapes normalize to the same import.
func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadBody, err))
		return
	}

	page := listing.Normalize[transactionRequest](raw)
	views := make([]transactionView, 0, len(page.Items))
	for _, req := range page.Items {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		date := time.Now().UTC()
		if req.Date != "" {
			date, err = parseDay(req.Date)
			if err != nil {
				writeError(w, r, err)
				return
			}
		}
		created, err := s.svc.Transactions.RecordTransaction(r.Context(), core.Transaction{
			UserID:     uid,
			AccountID:  req.AccountID,
			CategoryID: req.CategoryID,
			BudgetID:   req.BudgetID,
			Type:       core.TransactionType(req.Type),
			Amount:     amount,
			Date:       date,
			Note:       sanitizeInput(req.Note),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		views = append(views, viewTransaction(created))
	}

	if len(views) > 0 {
		s.invalidateDashboard(uid)
	}
	writeJSON(w, http.StatusCreated, importResponse{Imported: len(views), Items: views})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}

	f := storage.TransactionFilter{
		AccountID:  queryInt64(r, "account_id"),
		CategoryID: queryInt64(r, "category_id"),
		BudgetID:   queryInt64(r, "budget_id"),
		Type:       core.TransactionType(r.URL.Query().Get("type")),
	}
	if v := r.URL.Query().Get("from"); v != "" {
		from, err := parseDay(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.From = from
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err := parseDay(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.To = to
	}

	txns, err := s.svc.Transactions.ListTransactions(r.Context(), uid, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]transactionView, 0, len(txns))
	for _, t := range txns {
		views = append(views, viewTransaction(t))
	}
	page, pageSize := s.pageParams(r)
	respondList(w, views, page, pageSize)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Transactions.DeleteTransaction(r.Context(), id, uid); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDashboard(uid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(w, r); !ok {
		return
	}
	categories, err := s.svc.Transactions.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, viewCategory(c))
	}
	page, pageSize := s.pageParams(r)
	respondList(w, views, page, pageSize)
}

type categoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(w, r); !ok {
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.svc.Transactions.CreateCategory(r.Context(), core.Category{
		Name: sanitizeInput(req.Name),
		Kind: core.TransactionType(req.Kind),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewCategory(created))
}
