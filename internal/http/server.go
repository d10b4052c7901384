// Package http exposes the JSON API: accounts, the ledger, budgets,
// shared goals, bills, notifications and the dashboard.
package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"finshare/internal/cache"
	"finshare/internal/core"
	"finshare/internal/middleware/ratelimit"
	"finshare/internal/middleware/security"
	"finshare/internal/middleware/trace"
	"finshare/internal/services"
	"finshare/internal/storage"
)

// Config carries the server knobs. Zero values fall back to defaults
// in NewServer.
type Config struct {
	Addr              string
	DefaultPageSize   int
	MaxPageSize       int
	CacheTTL          time.Duration
	CacheMaxSize      int
	RequestsPerMinute int
}

// Store is the read surface the server uses directly, next to the
// services: ledger reads for the dashboard and the notification feed.
// *storage.SQLiteRepository satisfies it.
type Store interface {
	ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListNotifications(ctx context.Context, userID int64) ([]storage.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) error
}

// Services bundles the domain services the handlers dispatch to.
type Services struct {
	Accounts     *services.AccountService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Bills        *services.BillService
}

type Server struct {
	http.Server

	cfg   Config
	store Store
	svc   Services

	dashCache    *cache.LRUCache[dashboardPayload]
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter

	stopOnce sync.Once
}

func NewServer(cfg Config, store Store, svc Services) *Server {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.CacheMaxSize <= 0 {
		cfg.CacheMaxSize = 200
	}

	s := &Server{
		cfg:       cfg,
		store:     store,
		svc:       svc,
		dashCache: cache.NewLRUCache[dashboardPayload](cfg.CacheMaxSize, cfg.CacheTTL),
	}

	s.cacheManager = cache.NewManager()
	s.cacheManager.Register(s.dashCache)
	s.cacheManager.StartCleanup(time.Minute)

	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RequestsPerMinute,
	})

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(extractClientIP)

	var handler http.Handler = mux
	handler = tracer.Middleware(handler)
	handler = s.limiter.Middleware(extractClientIP)(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts/join", s.handleJoinAccount)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PUT /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("POST /api/accounts/{id}/deposit", s.handleDeposit)
	mux.HandleFunc("POST /api/accounts/{id}/withdraw", s.handleWithdraw)
	mux.HandleFunc("GET /api/accounts/{id}/transactions", s.handleListAccountTransactions)
	mux.HandleFunc("GET /api/accounts/{id}/transfers", s.handleListAccountTransfers)
	mux.HandleFunc("GET /api/accounts/{id}/members", s.handleListAccountMembers)
	mux.HandleFunc("PUT /api/accounts/{id}/members/{userID}", s.handleUpdateAccountMember)
	mux.HandleFunc("DELETE /api/accounts/{id}/members/{userID}", s.handleRemoveAccountMember)
	mux.HandleFunc("POST /api/transfers", s.handleTransfer)

	mux.HandleFunc("POST /api/transactions", s.handleRecordTransaction)
	mux.HandleFunc("POST /api/transactions/import", s.handleImportTransactions)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)

	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("GET /api/budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals/join", s.handleJoinGoal)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/cancel", s.handleCancelGoal)
	mux.HandleFunc("POST /api/goals/{id}/contributions", s.handleContribute)
	mux.HandleFunc("GET /api/goals/{id}/contributions", s.handleListContributions)
	mux.HandleFunc("GET /api/goals/{id}/members", s.handleListGoalMembers)
	mux.HandleFunc("POST /api/goals/{id}/members", s.handleInviteGoalMember)

	mux.HandleFunc("POST /api/bills", s.handleCreateBill)
	mux.HandleFunc("GET /api/bills", s.handleListBills)
	mux.HandleFunc("GET /api/bills/{id}", s.handleGetBill)
	mux.HandleFunc("DELETE /api/bills/{id}", s.handleDeleteBill)
	mux.HandleFunc("POST /api/bills/{id}/members/{memberID}/paid", s.handleMarkBillPaid)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/dashboard/monthly", s.handleDashboardMonthly)
	mux.HandleFunc("GET /api/dashboard/categories", s.handleDashboardCategories)

	mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.handleMarkNotificationRead)
}

// Shutdown stops the background goroutines and then drains in-flight
// requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		slog.InfoContext(ctx, "Server background tasks stopped")
	})
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	// The repository pings on startup; reaching this handler means the
	// process is serving.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// extractClientIP takes the first X-Forwarded-For hop when present,
// otherwise the peer address.
func extractClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
