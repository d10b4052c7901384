package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"finshare/internal/amqp"
	"finshare/internal/core"
	"finshare/internal/storage"
)

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newAccount(t *testing.T, repo *storage.SQLiteRepository, ownerID, balanceSatang int64) core.Account {
	t.Helper()
	a, err := repo.CreateAccount(context.Background(), core.Account{
		OwnerID: ownerID,
		Name:    "SCB savings",
		Type:    core.AccountPersonal,
		Balance: core.Money{Satang: balanceSatang},
		Active:  true,
	})
	require.NoError(t, err)
	return a
}

func expenseCategory(t *testing.T, repo *storage.SQLiteRepository) int64 {
	t.Helper()
	cats, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	for _, c := range cats {
		if c.Kind == core.TypeExpense {
			return c.ID
		}
	}
	t.Fatal("no expense category seeded")
	return 0
}

func incomeCategory(t *testing.T, repo *storage.SQLiteRepository) int64 {
	t.Helper()
	cats, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	for _, c := range cats {
		if c.Kind == core.TypeIncome {
			return c.ID
		}
	}
	t.Fatal("no income category seeded")
	return 0
}

// capturePublisher records published events instead of talking to a
// broker.
type capturePublisher struct {
	events []*amqp.ActivityEvent
}

func (p *capturePublisher) PublishActivity(_ context.Context, ev *amqp.ActivityEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) kinds() []amqp.EventKind {
	kinds := make([]amqp.EventKind, len(p.events))
	for i, ev := range p.events {
		kinds[i] = ev.Kind
	}
	return kinds
}
