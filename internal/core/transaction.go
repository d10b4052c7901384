package core

import (
	"errors"
	"strings"
	"time"
)

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

type (
	TransactionType string

	// Transaction is a general ledger entry, distinct from the
	// per-account deposit/withdraw records. Expense transactions may be
	// tagged with a budget; deleting the budget deletes them and refunds
	// their amount to the originating account.
	Transaction struct {
		ID         int64
		UserID     int64
		AccountID  int64
		CategoryID int64
		BudgetID   *int64
		Type       TransactionType
		Amount     Money
		Date       time.Time
		Note       string
	}

	// Category names a spending or income bucket.
	Category struct {
		ID   int64
		Name string
		Kind TransactionType // income or expense
	}
)

var ErrInvalidTransactionType = errors.New("invalid transaction type")

func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return errors.New("transaction date cannot be zero")
	}
	if len(t.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if c.Kind != TypeIncome && c.Kind != TypeExpense {
		return ErrInvalidTransactionType
	}
	return nil
}
