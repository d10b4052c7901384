package http

import (
	"log/slog"
	"net/http"

	"finshare/internal/core"
)

type budgetRequest struct {
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id"`
	Amount     string `json:"amount"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

func (s *Server) budgetFromRequest(uid int64, req budgetRequest) (core.Budget, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		UserID:     uid,
		Name:       sanitizeInput(req.Name),
		CategoryID: req.CategoryID,
		Amount:     amount,
		Year:       req.Year,
		Month:      req.Month,
	}, nil
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := s.budgetFromRequest(uid, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.svc.Budgets.CreateBudget(r.Context(), budget)
	if err != nil {
		writeError(w, r, err)
		return
	}
	got, err := s.svc.Budgets.GetWithProgress(r.Context(), created.ID, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewBudget(got))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	budgets, err := s.svc.Budgets.ListWithProgress(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, viewBudget(b))
	}
	page, pageSize := s.pageParams(r)
	respondList(w, views, page, pageSize)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	got, err := s.svc.Budgets.GetWithProgress(r.Context(), id, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewBudget(got))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := s.budgetFromRequest(uid, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	budget.ID = id
	if err := s.svc.Budgets.UpdateBudget(r.Context(), uid, budget); err != nil {
		writeError(w, r, err)
		return
	}
	got, err := s.svc.Budgets.GetWithProgress(r.Context(), id, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewBudget(got))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.svc.Budgets.DeleteBudget(r.Context(), id, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Tagged transactions went with the budget
	s.invalidateDashboard(uid)
	slog.InfoContext(r.Context(), "Budget deleted",
		"budget_id", id,
		"user_id", uid,
		"transactions_removed", result.TransactionsRemoved)
	writeJSON(w, http.StatusOK, map[string]int{"transactions_removed": result.TransactionsRemoved})
}
