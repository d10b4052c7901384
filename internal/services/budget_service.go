package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"finshare/internal/core"
	"finshare/internal/storage"
)

// spentResolveLimit caps how many spent-amount queries run at once
// during the list fan-out.
const spentResolveLimit = 8

type BudgetStore interface {
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, id int64) (core.Budget, error)
	ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, id int64) error

	ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error)
	SumTransactions(ctx context.Context, f storage.TransactionFilter) (core.Money, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	AdjustBalance(ctx context.Context, id int64, deltaSatang int64) error
	GetCategory(ctx context.Context, id int64) (core.Category, error)
}

type BudgetService struct {
	store BudgetStore
}

func NewBudgetService(store BudgetStore) *BudgetService {
	return &BudgetService{store: store}
}

// BudgetWithProgress pairs a budget with its derived spend state.
type BudgetWithProgress struct {
	Budget   core.Budget
	Progress core.BudgetProgress
}

// DeleteBudgetResult reports what a budget deletion removed.
type DeleteBudgetResult struct {
	TransactionsRemoved int
}

func (s *BudgetService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	category, err := s.store.GetCategory(ctx, b.CategoryID)
	if err != nil {
		return core.Budget{}, err
	}
	if category.Kind != core.TypeExpense {
		return core.Budget{}, core.ErrInvalidTransactionType
	}
	return s.store.CreateBudget(ctx, b)
}

func (s *BudgetService) UpdateBudget(ctx context.Context, actorID int64, b core.Budget) error {
	existing, err := s.store.GetBudget(ctx, b.ID)
	if err != nil {
		return err
	}
	if existing.UserID != actorID {
		return core.ErrPermissionDenied
	}
	if err := b.Validate(); err != nil {
		return err
	}
	b.UserID = existing.UserID
	return s.store.UpdateBudget(ctx, b)
}

// GetWithProgress returns one budget with its spent amount resolved
// from the ledger.
func (s *BudgetService) GetWithProgress(ctx context.Context, budgetID, actorID int64) (BudgetWithProgress, error) {
	b, err := s.store.GetBudget(ctx, budgetID)
	if err != nil {
		return BudgetWithProgress{}, err
	}
	if b.UserID != actorID {
		return BudgetWithProgress{}, core.ErrPermissionDenied
	}
	spent, err := resolveSpent(ctx, s.store, b)
	if err != nil {
		return BudgetWithProgress{}, err
	}
	return BudgetWithProgress{Budget: b, Progress: b.Progress(spent)}, nil
}

// ListWithProgress resolves the spent amount of every budget
// concurrently. A budget whose resolution fails is reported with zero
// spend instead of failing the whole listing.
func (s *BudgetService) ListWithProgress(ctx context.Context, userID int64) ([]BudgetWithProgress, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return nil, nil
	}

	results := make([]BudgetWithProgress, len(budgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(spentResolveLimit)

	for i, b := range budgets {
		g.Go(func() error {
			spent, err := resolveSpent(gctx, s.store, b)
			if err != nil {
				slog.WarnContext(gctx, "Failed to resolve budget spend, reporting zero",
					"budget_id", b.ID,
					"error", err)
				spent = core.Money{}
			}
			results[i] = BudgetWithProgress{Budget: b, Progress: b.Progress(spent)}
			return nil
		})
	}

	// Workers never return errors; Wait is for completion only.
	_ = g.Wait()

	return results, nil
}

// DeleteBudget removes the budget together with the transactions
// tagged to it, refunding each transaction's amount to its account.
// The whole cascade is one saga: a failure midway restores the
// already removed transactions and their balances.
func (s *BudgetService) DeleteBudget(ctx context.Context, budgetID, actorID int64) (DeleteBudgetResult, error) {
	b, err := s.store.GetBudget(ctx, budgetID)
	if err != nil {
		return DeleteBudgetResult{}, err
	}
	if b.UserID != actorID {
		return DeleteBudgetResult{}, core.ErrPermissionDenied
	}

	tagged, err := s.store.ListTransactions(ctx, storage.TransactionFilter{BudgetID: budgetID})
	if err != nil {
		return DeleteBudgetResult{}, err
	}

	saga := NewSaga("budget.delete")
	for _, t := range tagged {
		txn := t
		saga.AddStep(Step{
			Name: "remove tagged transaction",
			Run: func(ctx context.Context) error {
				return s.store.DeleteTransaction(ctx, txn.ID)
			},
			Compensate: func(ctx context.Context) error {
				_, err := s.store.CreateTransaction(ctx, txn)
				return err
			},
		})
		if delta := refundDelta(txn); delta != 0 {
			saga.AddStep(Step{
				Name: "refund account",
				Run: func(ctx context.Context) error {
					return s.store.AdjustBalance(ctx, txn.AccountID, delta)
				},
				Compensate: func(ctx context.Context) error {
					return s.store.AdjustBalance(ctx, txn.AccountID, -delta)
				},
			})
		}
	}
	saga.AddStep(Step{
		Name: "delete budget",
		Run: func(ctx context.Context) error {
			return s.store.DeleteBudget(ctx, budgetID)
		},
	})

	if err := saga.Execute(ctx); err != nil {
		return DeleteBudgetResult{}, err
	}

	slog.InfoContext(ctx, "Budget deleted with tagged transactions",
		"budget_id", budgetID,
		"transactions_removed", len(tagged))

	return DeleteBudgetResult{TransactionsRemoved: len(tagged)}, nil
}

// refundDelta is the balance correction owed to the account when the
// transaction is removed: expenses flow back, income is taken back.
func refundDelta(t core.Transaction) int64 {
	switch t.Type {
	case core.TypeExpense:
		return t.Amount.Satang
	case core.TypeIncome:
		return -t.Amount.Satang
	default:
		return 0
	}
}

type spentResolver interface {
	SumTransactions(ctx context.Context, f storage.TransactionFilter) (core.Money, error)
}

// resolveSpent derives a budget's spent amount from the expense
// transactions in the budget's category during its month. The spend is
// never stored.
func resolveSpent(ctx context.Context, store spentResolver, b core.Budget) (core.Money, error) {
	from, to := b.Period()
	return store.SumTransactions(ctx, storage.TransactionFilter{
		UserID:     b.UserID,
		CategoryID: b.CategoryID,
		Type:       core.TypeExpense,
		From:       from,
		To:         to,
	})
}
