package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finshare/internal/core"
	"finshare/internal/storage"
)

func TestBudgetProgressFromLedger(t *testing.T) {
	repo := newRepo(t)
	budgets := NewBudgetService(repo)
	ledger := NewTransactionService(repo, nil)
	ctx := context.Background()

	account := newAccount(t, repo, 1, 10_000_000)
	cat := expenseCategory(t, repo)

	budget, err := budgets.CreateBudget(ctx, core.Budget{
		UserID: 1, Name: "Food", CategoryID: cat,
		Amount: core.Money{Satang: 500_000}, Year: 2026, Month: 8,
	})
	require.NoError(t, err)

	spend := func(amount int64, day int) {
		_, err := ledger.RecordTransaction(ctx, core.Transaction{
			UserID: 1, AccountID: account.ID, CategoryID: cat,
			Type: core.TypeExpense, Amount: core.Money{Satang: amount},
			Date: time.Date(2026, 8, day, 10, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	spend(100_000, 2)
	spend(150_000, 14)
	// Outside the budget month, must not count
	_, err = ledger.RecordTransaction(ctx, core.Transaction{
		UserID: 1, AccountID: account.ID, CategoryID: cat,
		Type: core.TypeExpense, Amount: core.Money{Satang: 999_000},
		Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	got, err := budgets.GetWithProgress(ctx, budget.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(250_000), got.Progress.SpentAmount.Satang)
	assert.InDelta(t, 50.0, got.Progress.PercentUsed, 0.001)
	assert.False(t, got.Progress.IsOverBudget)
	assert.False(t, got.Progress.IsNearLimit)
}

func TestListWithProgressResolvesConcurrently(t *testing.T) {
	repo := newRepo(t)
	budgets := NewBudgetService(repo)
	ctx := context.Background()

	cat := expenseCategory(t, repo)
	for month := 1; month <= 6; month++ {
		_, err := budgets.CreateBudget(ctx, core.Budget{
			UserID: 1, Name: "Monthly food", CategoryID: cat,
			Amount: core.Money{Satang: 300_000}, Year: 2026, Month: month,
		})
		require.NoError(t, err)
	}

	list, err := budgets.ListWithProgress(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 6)
	for _, item := range list {
		assert.Equal(t, int64(0), item.Progress.SpentAmount.Satang)
		assert.False(t, item.Progress.IsOverBudget)
	}
}

// failingSpendStore fails spend resolution for one budget to exercise
// the degrade-to-zero path of the listing fan-out.
type failingSpendStore struct {
	BudgetStore
	budgets    []core.Budget
	failCatID  int64
	goodAmount int64
}

func (f *failingSpendStore) ListBudgets(context.Context, int64) ([]core.Budget, error) {
	return f.budgets, nil
}

func (f *failingSpendStore) SumTransactions(_ context.Context, filter storage.TransactionFilter) (core.Money, error) {
	if filter.CategoryID == f.failCatID {
		return core.Money{}, errors.New("query timeout")
	}
	return core.Money{Satang: f.goodAmount}, nil
}

func TestListWithProgressReportsZeroOnResolutionFailure(t *testing.T) {
	store := &failingSpendStore{
		budgets: []core.Budget{
			{ID: 1, UserID: 1, Name: "Food", CategoryID: 10, Amount: core.Money{Satang: 100_000}, Year: 2026, Month: 8},
			{ID: 2, UserID: 1, Name: "Transport", CategoryID: 20, Amount: core.Money{Satang: 100_000}, Year: 2026, Month: 8},
		},
		failCatID:  20,
		goodAmount: 40_000,
	}
	budgets := NewBudgetService(store)

	list, err := budgets.ListWithProgress(context.Background(), 1)
	require.NoError(t, err, "one failing budget must not fail the listing")
	require.Len(t, list, 2)

	assert.Equal(t, int64(40_000), list[0].Progress.SpentAmount.Satang)
	assert.Equal(t, int64(0), list[1].Progress.SpentAmount.Satang)
}

func TestDeleteBudgetCascadesAndRefunds(t *testing.T) {
	repo := newRepo(t)
	budgets := NewBudgetService(repo)
	ledger := NewTransactionService(repo, nil)
	ctx := context.Background()

	account := newAccount(t, repo, 1, 1_000_000)
	cat := expenseCategory(t, repo)

	budget, err := budgets.CreateBudget(ctx, core.Budget{
		UserID: 1, Name: "Shopping", CategoryID: cat,
		Amount: core.Money{Satang: 500_000}, Year: 2026, Month: 8,
	})
	require.NoError(t, err)

	for _, amount := range []int64{100_000, 50_000} {
		_, err := ledger.RecordTransaction(ctx, core.Transaction{
			UserID: 1, AccountID: account.ID, CategoryID: cat, BudgetID: &budget.ID,
			Type: core.TypeExpense, Amount: core.Money{Satang: amount},
			Date: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	mid, err := repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, int64(850_000), mid.Balance.Satang)

	result, err := budgets.DeleteBudget(ctx, budget.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TransactionsRemoved)

	after, err := repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), after.Balance.Satang, "deleting the budget refunds its transactions")

	_, err = repo.GetBudget(ctx, budget.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	remaining, err := repo.ListTransactions(ctx, storage.TransactionFilter{UserID: 1})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeleteBudgetDeniedForOtherUser(t *testing.T) {
	repo := newRepo(t)
	budgets := NewBudgetService(repo)
	ctx := context.Background()

	cat := expenseCategory(t, repo)
	budget, err := budgets.CreateBudget(ctx, core.Budget{
		UserID: 1, Name: "Food", CategoryID: cat,
		Amount: core.Money{Satang: 100_000}, Year: 2026, Month: 8,
	})
	require.NoError(t, err)

	_, err = budgets.DeleteBudget(ctx, budget.ID, 2)
	require.ErrorIs(t, err, core.ErrPermissionDenied)
}

func TestCreateBudgetRejectsZeroAmountAndIncomeCategory(t *testing.T) {
	repo := newRepo(t)
	budgets := NewBudgetService(repo)
	ctx := context.Background()

	cat := expenseCategory(t, repo)
	_, err := budgets.CreateBudget(ctx, core.Budget{
		UserID: 1, Name: "Free", CategoryID: cat,
		Amount: core.Money{}, Year: 2026, Month: 8,
	})
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	income := incomeCategory(t, repo)
	_, err = budgets.CreateBudget(ctx, core.Budget{
		UserID: 1, Name: "Salary cap", CategoryID: income,
		Amount: core.Money{Satang: 100_000}, Year: 2026, Month: 8,
	})
	require.ErrorIs(t, err, core.ErrInvalidTransactionType)
}
