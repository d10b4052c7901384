// Package analytics derives dashboard aggregates from transactions
// already fetched into memory. All functions are pure and synchronous.
package analytics

import (
	"sort"
	"time"

	"finshare/internal/core"
)

// UncategorizedLabel buckets expenses whose category id is missing from
// the lookup, so every expense is accounted for in exactly one bucket.
const UncategorizedLabel = "uncategorized"

// MonthlyWindow is how many trailing months the monthly series keeps.
const MonthlyWindow = 6

// TopCategoryCount is how many categories the dashboard breakdown shows.
const TopCategoryCount = 5

// MonthPoint is one entry of the monthly income/expense series.
type MonthPoint struct {
	Year    int
	Month   time.Month
	Label   string // e.g. "Aug 2026"
	Income  core.Money
	Expense core.Money
	Savings core.Money // income - expense, may be negative
}

// CategoryShare is one category's slice of total expenses.
type CategoryShare struct {
	CategoryID int64
	Name       string
	Amount     core.Money
	Percentage float64 // of total expense across all categories, 0 when total is 0
}

// MonthlySeries groups transactions into per-month income/expense/savings
// points, sorted chronologically and windowed to the most recent
// MonthlyWindow entries. Transfers are ignored. An empty transaction
// list yields nil so callers can substitute placeholder data.
func MonthlySeries(txns []core.Transaction) []MonthPoint {
	if len(txns) == 0 {
		return nil
	}

	type ym struct {
		year  int
		month time.Month
	}
	buckets := make(map[ym]*MonthPoint)
	for _, t := range txns {
		if t.Type != core.TypeIncome && t.Type != core.TypeExpense {
			continue
		}
		key := ym{t.Date.Year(), t.Date.Month()}
		p, ok := buckets[key]
		if !ok {
			p = &MonthPoint{
				Year:  key.year,
				Month: key.month,
				Label: time.Date(key.year, key.month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006"),
			}
			buckets[key] = p
		}
		switch t.Type {
		case core.TypeIncome:
			p.Income = p.Income.Add(t.Amount)
		case core.TypeExpense:
			p.Expense = p.Expense.Add(t.Amount)
		}
	}
	if len(buckets) == 0 {
		return nil
	}

	series := make([]MonthPoint, 0, len(buckets))
	for _, p := range buckets {
		p.Savings = p.Income.Sub(p.Expense)
		series = append(series, *p)
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].Year != series[j].Year {
			return series[i].Year < series[j].Year
		}
		return series[i].Month < series[j].Month
	})

	if len(series) > MonthlyWindow {
		series = series[len(series)-MonthlyWindow:]
	}
	return series
}

// CategoryBreakdown aggregates expense transactions per category, sorted
// descending by amount, with each share's percentage of the total
// expense across all categories. Categories missing from the lookup fall
// back to UncategorizedLabel rather than being dropped. Percentages are
// all 0 when the total is 0. An empty input yields nil.
func CategoryBreakdown(txns []core.Transaction, categories map[int64]string) []CategoryShare {
	if len(txns) == 0 {
		return nil
	}

	sums := make(map[int64]int64)
	var total int64
	for _, t := range txns {
		if t.Type != core.TypeExpense {
			continue
		}
		sums[t.CategoryID] += t.Amount.Satang
		total += t.Amount.Satang
	}
	if len(sums) == 0 {
		return nil
	}

	shares := make([]CategoryShare, 0, len(sums))
	for id, satang := range sums {
		name, ok := categories[id]
		if !ok {
			name = UncategorizedLabel
		}
		pct := 0.0
		if total > 0 {
			pct = float64(satang) / float64(total) * 100
		}
		shares = append(shares, CategoryShare{
			CategoryID: id,
			Name:       name,
			Amount:     core.Money{Satang: satang},
			Percentage: pct,
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount.Satang != shares[j].Amount.Satang {
			return shares[i].Amount.Satang > shares[j].Amount.Satang
		}
		return shares[i].CategoryID < shares[j].CategoryID
	})
	return shares
}

// TopCategories windows a breakdown to its n largest shares.
func TopCategories(shares []CategoryShare, n int) []CategoryShare {
	if n <= 0 || len(shares) <= n {
		return shares
	}
	return shares[:n]
}
