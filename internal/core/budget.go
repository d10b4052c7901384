package core

import (
	"errors"
	"strings"
	"time"
)

// NearLimitThreshold is the percentage of the budget above which a
// budget is flagged as near its limit.
const NearLimitThreshold = 80.0

type (
	// Budget is a named spending ceiling scoped to one category and one
	// calendar month. The spent amount is never stored; it is derived
	// from the expense transactions inside the budget's period.
	Budget struct {
		ID         int64
		UserID     int64
		Name       string
		CategoryID int64
		Amount     Money
		Year       int
		Month      int // 1-12
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	// BudgetProgress is the derived state of a budget against its spend.
	// IsOverBudget and IsNearLimit are mutually exclusive.
	BudgetProgress struct {
		SpentAmount  Money
		PercentUsed  float64
		IsOverBudget bool
		IsNearLimit  bool
	}
)

var ErrInvalidMonth = errors.New("invalid month")

// Validate rejects zero-amount budgets, which keeps PercentUsed defined
// everywhere downstream.
func (b Budget) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if len(b.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1970 || b.Year > 9999 {
		return errors.New("invalid year")
	}
	return nil
}

// Period returns the half-open interval [from, to) covering the
// budget's month in UTC.
func (b Budget) Period() (from, to time.Time) {
	from = time.Date(b.Year, time.Month(b.Month), 1, 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 1, 0)
	return from, to
}

// Progress derives the over/near-limit flags for a given spend.
// Budget amounts are validated to be positive, so the division is safe.
func (b Budget) Progress(spent Money) BudgetProgress {
	pct := float64(spent.Satang) / float64(b.Amount.Satang) * 100
	over := spent.Satang > b.Amount.Satang
	return BudgetProgress{
		SpentAmount:  spent,
		PercentUsed:  pct,
		IsOverBudget: over,
		IsNearLimit:  pct > NearLimitThreshold && !over,
	}
}
