package services

import (
	"context"
	"log/slog"

	"finshare/internal/amqp"
	"finshare/internal/core"
	"finshare/internal/storage"
)

type LedgerStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error)
	SumTransactions(ctx context.Context, f storage.TransactionFilter) (core.Money, error)

	GetAccount(ctx context.Context, id int64) (core.Account, error)
	AdjustBalance(ctx context.Context, id int64, deltaSatang int64) error
	GetBudget(ctx context.Context, id int64) (core.Budget, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
}

type TransactionService struct {
	store  LedgerStore
	events Publisher
}

func NewTransactionService(store LedgerStore, events Publisher) *TransactionService {
	return &TransactionService{store: store, events: events}
}

// RecordTransaction writes a ledger entry and applies it to the
// account balance in one saga. Expenses that the balance cannot cover
// are rejected before any write. When the entry pushes a tagged budget
// over its limit an event goes out.
func (s *TransactionService) RecordTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	category, err := s.store.GetCategory(ctx, t.CategoryID)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.Type != core.TypeTransfer && category.Kind != t.Type {
		return core.Transaction{}, core.ErrInvalidTransactionType
	}

	var budget core.Budget
	if t.BudgetID != nil {
		budget, err = s.store.GetBudget(ctx, *t.BudgetID)
		if err != nil {
			return core.Transaction{}, err
		}
		if budget.UserID != t.UserID || budget.CategoryID != t.CategoryID {
			return core.Transaction{}, core.ErrPermissionDenied
		}
	}

	account, err := s.store.GetAccount(ctx, t.AccountID)
	if err != nil {
		return core.Transaction{}, err
	}
	delta := balanceDelta(t)
	if delta < 0 && !account.CanWithdraw(core.Money{Satang: -delta}) {
		return core.Transaction{}, core.ErrInsufficientBalance
	}

	var created core.Transaction
	saga := NewSaga("ledger.record")
	if delta != 0 {
		saga.AddStep(Step{
			Name: "apply to balance",
			Run: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, t.AccountID, delta)
			},
			Compensate: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, t.AccountID, -delta)
			},
		})
	}
	saga.AddStep(Step{
		Name: "record entry",
		Run: func(ctx context.Context) error {
			var err error
			created, err = s.store.CreateTransaction(ctx, t)
			return err
		},
		Compensate: func(ctx context.Context) error {
			return s.store.DeleteTransaction(ctx, created.ID)
		},
	})

	if err := saga.Execute(ctx); err != nil {
		return core.Transaction{}, err
	}

	if t.BudgetID != nil {
		s.notifyIfOverBudget(ctx, budget)
	}

	return created, nil
}

// DeleteTransaction removes a ledger entry and reverses its effect on
// the account balance.
func (s *TransactionService) DeleteTransaction(ctx context.Context, transactionID, actorID int64) error {
	t, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	if t.UserID != actorID {
		return core.ErrPermissionDenied
	}

	delta := balanceDelta(t)
	saga := NewSaga("ledger.delete").
		AddStep(Step{
			Name: "remove entry",
			Run: func(ctx context.Context) error {
				return s.store.DeleteTransaction(ctx, t.ID)
			},
			Compensate: func(ctx context.Context) error {
				_, err := s.store.CreateTransaction(ctx, t)
				return err
			},
		})
	if delta != 0 {
		saga.AddStep(Step{
			Name: "reverse balance",
			Run: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, t.AccountID, -delta)
			},
			Compensate: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, t.AccountID, delta)
			},
		})
	}

	return saga.Execute(ctx)
}

// ListTransactions always scopes the filter to the acting user.
func (s *TransactionService) ListTransactions(ctx context.Context, actorID int64, f storage.TransactionFilter) ([]core.Transaction, error) {
	f.UserID = actorID
	return s.store.ListTransactions(ctx, f)
}

func (s *TransactionService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *TransactionService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return s.store.CreateCategory(ctx, c)
}

func (s *TransactionService) notifyIfOverBudget(ctx context.Context, b core.Budget) {
	spent, err := resolveSpent(ctx, s.store, b)
	if err != nil {
		slog.WarnContext(ctx, "Failed to resolve budget spend after recording",
			"budget_id", b.ID,
			"error", err)
		return
	}
	if !b.Progress(spent).IsOverBudget {
		return
	}
	if s.events == nil {
		return
	}
	if err := s.events.PublishActivity(ctx, amqp.NewActivityEvent(amqp.EventBudgetOver, b.UserID, b.ID, spent.Satang)); err != nil {
		slog.WarnContext(ctx, "Failed to publish budget event",
			"budget_id", b.ID,
			"error", err)
	}
}

// balanceDelta is the signed effect of a ledger entry on its account.
// Transfers between own accounts are recorded for history only.
func balanceDelta(t core.Transaction) int64 {
	switch t.Type {
	case core.TypeIncome:
		return t.Amount.Satang
	case core.TypeExpense:
		return -t.Amount.Satang
	default:
		return 0
	}
}
