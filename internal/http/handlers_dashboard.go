package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"finshare/internal/analytics"
	"finshare/internal/storage"
)

// dashboardTimeout bounds the ledger reads behind a dashboard request.
const dashboardTimeout = 7 * time.Second

type dashboardPayload struct {
	Monthly       []monthPointView    `json:"monthly"`
	TopCategories []categoryShareView `json:"top_categories"`
}

func dashboardKey(userID int64) string {
	return fmt.Sprintf("dashboard:u:%d", userID)
}

// getDashboard serves from the cache when it can; otherwise it derives
// the aggregates from the user's ledger and caches the result.
func (s *Server) getDashboard(ctx context.Context, userID int64) (dashboardPayload, error) {
	key := dashboardKey(userID)
	if cached, ok := s.dashCache.Get(key); ok {
		return cached, nil
	}

	cctx, cancel := context.WithTimeout(ctx, dashboardTimeout)
	defer cancel()

	txns, err := s.store.ListTransactions(cctx, storage.TransactionFilter{UserID: userID})
	if err != nil {
		return dashboardPayload{}, fmt.Errorf("list transactions for dashboard (user=%d): %w", userID, err)
	}
	categories, err := s.store.ListCategories(cctx)
	if err != nil {
		return dashboardPayload{}, fmt.Errorf("list categories for dashboard: %w", err)
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	series := analytics.MonthlySeries(txns)
	shares := analytics.TopCategories(analytics.CategoryBreakdown(txns, names), analytics.TopCategoryCount)

	payload := dashboardPayload{
		Monthly:       make([]monthPointView, 0, len(series)),
		TopCategories: make([]categoryShareView, 0, len(shares)),
	}
	for _, p := range series {
		payload.Monthly = append(payload.Monthly, viewMonthPoint(p))
	}
	for _, sh := range shares {
		payload.TopCategories = append(payload.TopCategories, viewCategoryShare(sh))
	}

	s.dashCache.Set(key, payload)
	return payload, nil
}

// invalidateDashboard drops the cached aggregates after a ledger write.
func (s *Server) invalidateDashboard(userID int64) {
	s.dashCache.Delete(dashboardKey(userID))
	slog.Debug("Dashboard cache invalidated", "user_id", userID)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	payload, err := s.getDashboard(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleDashboardMonthly(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	payload, err := s.getDashboard(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]monthPointView{"monthly": payload.Monthly})
}

func (s *Server) handleDashboardCategories(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	payload, err := s.getDashboard(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]categoryShareView{"top_categories": payload.TopCategories})
}
