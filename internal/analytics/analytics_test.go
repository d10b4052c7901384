package analytics

import (
	"math"
	"testing"
	"time"

	"finshare/internal/core"
)

func txn(kind core.TransactionType, satang int64, categoryID int64, date time.Time) core.Transaction {
	return core.Transaction{
		Type:       kind,
		Amount:     core.Money{Satang: satang},
		CategoryID: categoryID,
		Date:       date,
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func TestMonthlySeriesEmptyInput(t *testing.T) {
	if got := MonthlySeries(nil); got != nil {
		t.Errorf("MonthlySeries(nil) = %v, want nil", got)
	}
	// Transfers alone produce no buckets either
	transfers := []core.Transaction{txn(core.TypeTransfer, 100, 1, day(2026, 3, 1))}
	if got := MonthlySeries(transfers); got != nil {
		t.Errorf("MonthlySeries(transfers only) = %v, want nil", got)
	}
}

func TestMonthlySeriesGroupsAndSorts(t *testing.T) {
	txns := []core.Transaction{
		txn(core.TypeExpense, 5000, 1, day(2026, 3, 10)),
		txn(core.TypeIncome, 200000, 2, day(2026, 1, 5)),
		txn(core.TypeExpense, 30000, 1, day(2026, 1, 20)),
		txn(core.TypeIncome, 250000, 2, day(2026, 3, 1)),
		txn(core.TypeTransfer, 99999, 3, day(2026, 2, 14)), // ignored
	}

	series := MonthlySeries(txns)
	if len(series) != 2 {
		t.Fatalf("len(series) = %d, want 2", len(series))
	}
	jan, mar := series[0], series[1]
	if jan.Month != time.January || mar.Month != time.March {
		t.Fatalf("series not chronological: %v, %v", jan.Month, mar.Month)
	}
	if jan.Label != "Jan 2026" {
		t.Errorf("Label = %q, want %q", jan.Label, "Jan 2026")
	}
	if jan.Income.Satang != 200000 || jan.Expense.Satang != 30000 || jan.Savings.Satang != 170000 {
		t.Errorf("january point = %+v", jan)
	}
	if mar.Income.Satang != 250000 || mar.Expense.Satang != 5000 {
		t.Errorf("march point = %+v", mar)
	}
}

func TestMonthlySeriesWindowsToSixMonths(t *testing.T) {
	var txns []core.Transaction
	for m := 1; m <= 9; m++ {
		txns = append(txns, txn(core.TypeIncome, int64(m)*1000, 1, day(2026, time.Month(m), 15)))
	}

	series := MonthlySeries(txns)
	if len(series) != MonthlyWindow {
		t.Fatalf("len(series) = %d, want %d", len(series), MonthlyWindow)
	}
	if series[0].Month != time.April || series[len(series)-1].Month != time.September {
		t.Errorf("window = %v..%v, want April..September", series[0].Month, series[len(series)-1].Month)
	}

	// Income totals inside the window match the input restricted to it
	var want, got int64
	for m := 4; m <= 9; m++ {
		want += int64(m) * 1000
	}
	for _, p := range series {
		got += p.Income.Satang
	}
	if got != want {
		t.Errorf("windowed income sum = %d, want %d", got, want)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	lookup := map[int64]string{1: "Food", 2: "Transport"}
	txns := []core.Transaction{
		txn(core.TypeExpense, 60000, 1, day(2026, 8, 1)),
		txn(core.TypeExpense, 30000, 2, day(2026, 8, 2)),
		txn(core.TypeExpense, 10000, 99, day(2026, 8, 3)), // unknown category
		txn(core.TypeIncome, 500000, 3, day(2026, 8, 4)),  // ignored
	}

	shares := CategoryBreakdown(txns, lookup)
	if len(shares) != 3 {
		t.Fatalf("len(shares) = %d, want 3", len(shares))
	}
	if shares[0].Name != "Food" || shares[0].Percentage != 60 {
		t.Errorf("shares[0] = %+v, want Food at 60%%", shares[0])
	}
	if shares[1].Name != "Transport" || shares[1].Percentage != 30 {
		t.Errorf("shares[1] = %+v, want Transport at 30%%", shares[1])
	}
	if shares[2].Name != UncategorizedLabel || shares[2].Percentage != 10 {
		t.Errorf("shares[2] = %+v, want %s at 10%%", shares[2], UncategorizedLabel)
	}

	var pctSum float64
	var amountSum int64
	for _, s := range shares {
		pctSum += s.Percentage
		amountSum += s.Amount.Satang
	}
	if math.Abs(pctSum-100) > 0.0001 {
		t.Errorf("percentages sum to %v, want 100", pctSum)
	}
	if amountSum != 100000 {
		t.Errorf("amounts sum to %d, want every expense in exactly one bucket", amountSum)
	}
}

func TestCategoryBreakdownNoExpenses(t *testing.T) {
	txns := []core.Transaction{txn(core.TypeIncome, 1000, 1, day(2026, 8, 1))}
	if got := CategoryBreakdown(txns, nil); got != nil {
		t.Errorf("CategoryBreakdown(income only) = %v, want nil", got)
	}
	if got := CategoryBreakdown(nil, nil); got != nil {
		t.Errorf("CategoryBreakdown(nil) = %v, want nil", got)
	}
}

func TestTopCategories(t *testing.T) {
	shares := make([]CategoryShare, 8)
	for i := range shares {
		shares[i] = CategoryShare{CategoryID: int64(i)}
	}
	if got := TopCategories(shares, TopCategoryCount); len(got) != TopCategoryCount {
		t.Errorf("len(TopCategories) = %d, want %d", len(got), TopCategoryCount)
	}
	if got := TopCategories(shares[:3], TopCategoryCount); len(got) != 3 {
		t.Errorf("len(TopCategories short list) = %d, want 3", len(got))
	}
}
