package core

import (
	"testing"
	"time"
)

func TestBudgetValidate(t *testing.T) {
	valid := Budget{Name: "Groceries", CategoryID: 1, Amount: Money{Satang: 500000}, Year: 2026, Month: 8}

	tests := []struct {
		name    string
		mutate  func(*Budget)
		wantErr error
	}{
		{"valid budget", func(b *Budget) {}, nil},
		{"empty name", func(b *Budget) { b.Name = "  " }, ErrEmptyName},
		{"zero amount rejected", func(b *Budget) { b.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount rejected", func(b *Budget) { b.Amount = Money{Satang: -100} }, ErrInvalidAmount},
		{"month zero", func(b *Budget) { b.Month = 0 }, ErrInvalidMonth},
		{"month thirteen", func(b *Budget) { b.Month = 13 }, ErrInvalidMonth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			err := b.Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetPeriod(t *testing.T) {
	b := Budget{Year: 2026, Month: 12}
	from, to := b.Period()

	wantFrom := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if !from.Equal(wantFrom) || !to.Equal(wantTo) {
		t.Errorf("Period() = (%v, %v), want (%v, %v)", from, to, wantFrom, wantTo)
	}
}

func TestBudgetProgress(t *testing.T) {
	budget := Budget{Amount: Money{Satang: 100000}} // ฿1000

	tests := []struct {
		name        string
		spentSatang int64
		wantPct     float64
		wantOver    bool
		wantNear    bool
	}{
		{"nothing spent", 0, 0, false, false},
		{"half spent", 50000, 50, false, false},
		{"exactly at threshold", 80000, 80, false, false},
		{"just past threshold", 80001, 80.001, false, true},
		{"at the limit", 100000, 100, false, true},
		{"over the limit", 100001, 100.001, true, false},
		{"far over", 250000, 250, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := budget.Progress(Money{Satang: tt.spentSatang})
			if got.IsOverBudget != tt.wantOver {
				t.Errorf("IsOverBudget = %v, want %v", got.IsOverBudget, tt.wantOver)
			}
			if got.IsNearLimit != tt.wantNear {
				t.Errorf("IsNearLimit = %v, want %v", got.IsNearLimit, tt.wantNear)
			}
			if got.IsOverBudget && got.IsNearLimit {
				t.Error("IsOverBudget and IsNearLimit must never both be true")
			}
			if diff := got.PercentUsed - tt.wantPct; diff > 0.0001 || diff < -0.0001 {
				t.Errorf("PercentUsed = %v, want %v", got.PercentUsed, tt.wantPct)
			}
		})
	}
}
