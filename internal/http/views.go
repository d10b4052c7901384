package http

import (
	"time"

	"finshare/internal/analytics"
	"finshare/internal/core"
	"finshare/internal/services"
	"finshare/internal/storage"
)

// Wire representations of the domain types. Money always travels as
// satang plus a formatted display string.

type moneyView struct {
	Satang  int64  `json:"satang"`
	Display string `json:"display"`
}

func viewMoney(m core.Money) moneyView {
	return moneyView{Satang: m.Satang, Display: m.String()}
}

type accountView struct {
	ID         int64     `json:"id"`
	OwnerID    int64     `json:"owner_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Balance    moneyView `json:"balance"`
	BankName   string    `json:"bank_name,omitempty"`
	BankNumber string    `json:"bank_number,omitempty"`
	Color      string    `json:"color,omitempty"`
	ShareCode  string    `json:"share_code,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func viewAccount(a core.Account) accountView {
	return accountView{
		ID:         a.ID,
		OwnerID:    a.OwnerID,
		Name:       a.Name,
		Type:       string(a.Type),
		Balance:    viewMoney(a.Balance),
		BankName:   a.BankName,
		BankNumber: a.BankNumber,
		Color:      a.Color,
		ShareCode:  a.ShareCode,
		Active:     a.Active,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

type accountMemberView struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	UserID      int64     `json:"user_id"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	JoinedAt    time.Time `json:"joined_at"`
}

func viewAccountMember(m core.AccountMember) accountMemberView {
	perms := make([]string, 0, len(m.Permissions))
	for _, p := range m.Permissions {
		perms = append(perms, string(p))
	}
	return accountMemberView{
		ID:          m.ID,
		AccountID:   m.AccountID,
		UserID:      m.UserID,
		Role:        string(m.Role),
		Permissions: perms,
		JoinedAt:    m.JoinedAt,
	}
}

type accountTxnView struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Type      string    `json:"type"`
	Amount    moneyView `json:"amount"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func viewAccountTxn(t core.AccountTransaction) accountTxnView {
	return accountTxnView{
		ID:        t.ID,
		AccountID: t.AccountID,
		Type:      string(t.Type),
		Amount:    viewMoney(t.Amount),
		Note:      t.Note,
		CreatedAt: t.CreatedAt,
	}
}

type transferView struct {
	ID            int64     `json:"id"`
	FromAccountID int64     `json:"from_account_id"`
	ToAccountID   int64     `json:"to_account_id"`
	Amount        moneyView `json:"amount"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func viewTransfer(t core.AccountTransfer) transferView {
	return transferView{
		ID:            t.ID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        viewMoney(t.Amount),
		Note:          t.Note,
		CreatedAt:     t.CreatedAt,
	}
}

type transactionView struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	AccountID  int64     `json:"account_id"`
	CategoryID int64     `json:"category_id"`
	BudgetID   *int64    `json:"budget_id,omitempty"`
	Type       string    `json:"type"`
	Amount     moneyView `json:"amount"`
	Date       string    `json:"date"`
	Note       string    `json:"note,omitempty"`
}

func viewTransaction(t core.Transaction) transactionView {
	return transactionView{
		ID:         t.ID,
		UserID:     t.UserID,
		AccountID:  t.AccountID,
		CategoryID: t.CategoryID,
		BudgetID:   t.BudgetID,
		Type:       string(t.Type),
		Amount:     viewMoney(t.Amount),
		Date:       t.Date.UTC().Format("2006-01-02"),
		Note:       t.Note,
	}
}

type categoryView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func viewCategory(c core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Kind: string(c.Kind)}
}

type budgetProgressView struct {
	Spent        moneyView `json:"spent"`
	PercentUsed  float64   `json:"percent_used"`
	IsOverBudget bool      `json:"is_over_budget"`
	IsNearLimit  bool      `json:"is_near_limit"`
}

type budgetView struct {
	ID         int64              `json:"id"`
	UserID     int64              `json:"user_id"`
	Name       string             `json:"name"`
	CategoryID int64              `json:"category_id"`
	Amount     moneyView          `json:"amount"`
	Year       int                `json:"year"`
	Month      int                `json:"month"`
	Progress   budgetProgressView `json:"progress"`
}

func viewBudget(b services.BudgetWithProgress) budgetView {
	return budgetView{
		ID:         b.Budget.ID,
		UserID:     b.Budget.UserID,
		Name:       b.Budget.Name,
		CategoryID: b.Budget.CategoryID,
		Amount:     viewMoney(b.Budget.Amount),
		Year:       b.Budget.Year,
		Month:      b.Budget.Month,
		Progress: budgetProgressView{
			Spent:        viewMoney(b.Progress.SpentAmount),
			PercentUsed:  b.Progress.PercentUsed,
			IsOverBudget: b.Progress.IsOverBudget,
			IsNearLimit:  b.Progress.IsNearLimit,
		},
	}
}

type goalView struct {
	ID              int64     `json:"id"`
	CreatorID       int64     `json:"creator_id"`
	Name            string    `json:"name"`
	TargetAmount    moneyView `json:"target_amount"`
	CurrentAmount   moneyView `json:"current_amount"`
	PercentFunded   float64   `json:"percent_funded"`
	TargetDate      string    `json:"target_date,omitempty"`
	LinkedAccountID *int64    `json:"linked_account_id,omitempty"`
	ShareCode       string    `json:"share_code,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

func viewGoal(g core.SharedGoal) goalView {
	v := goalView{
		ID:              g.ID,
		CreatorID:       g.CreatorID,
		Name:            g.Name,
		TargetAmount:    viewMoney(g.TargetAmount),
		CurrentAmount:   viewMoney(g.CurrentAmount),
		PercentFunded:   g.PercentFunded(),
		LinkedAccountID: g.LinkedAccountID,
		ShareCode:       g.ShareCode,
		Status:          string(g.Status),
		CreatedAt:       g.CreatedAt,
	}
	if !g.TargetDate.IsZero() {
		v.TargetDate = g.TargetDate.UTC().Format("2006-01-02")
	}
	return v
}

type goalMemberView struct {
	ID          int64     `json:"id"`
	GoalID      int64     `json:"goal_id"`
	UserID      int64     `json:"user_id"`
	Contributed moneyView `json:"contributed"`
	JoinedAt    time.Time `json:"joined_at"`
}

func viewGoalMember(m core.SharedGoalMember) goalMemberView {
	return goalMemberView{
		ID:          m.ID,
		GoalID:      m.GoalID,
		UserID:      m.UserID,
		Contributed: viewMoney(m.Contributed),
		JoinedAt:    m.JoinedAt,
	}
}

type contributionView struct {
	ID        int64     `json:"id"`
	GoalID    int64     `json:"goal_id"`
	UserID    int64     `json:"user_id"`
	Amount    moneyView `json:"amount"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func viewContribution(c core.GoalContribution) contributionView {
	return contributionView{
		ID:        c.ID,
		GoalID:    c.GoalID,
		UserID:    c.UserID,
		Amount:    viewMoney(c.Amount),
		Note:      c.Note,
		CreatedAt: c.CreatedAt,
	}
}

type billView struct {
	ID        int64      `json:"id"`
	OwnerID   int64      `json:"owner_id"`
	Name      string     `json:"name"`
	Total     moneyView  `json:"total"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

func viewBill(b core.Bill) billView {
	return billView{
		ID:        b.ID,
		OwnerID:   b.OwnerID,
		Name:      b.Name,
		Total:     viewMoney(b.Total),
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
		SettledAt: b.SettledAt,
	}
}

type billMemberView struct {
	ID     int64      `json:"id"`
	BillID int64      `json:"bill_id"`
	UserID int64      `json:"user_id,omitempty"`
	Name   string     `json:"name"`
	Share  moneyView  `json:"share"`
	Paid   bool       `json:"paid"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

func viewBillMember(m core.BillMember) billMemberView {
	return billMemberView{
		ID:     m.ID,
		BillID: m.BillID,
		UserID: m.UserID,
		Name:   m.Name,
		Share:  viewMoney(m.Share),
		Paid:   m.Paid,
		PaidAt: m.PaidAt,
	}
}

type notificationView struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func viewNotification(n storage.Notification) notificationView {
	return notificationView{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

type monthPointView struct {
	Year    int       `json:"year"`
	Month   int       `json:"month"`
	Label   string    `json:"label"`
	Income  moneyView `json:"income"`
	Expense moneyView `json:"expense"`
	Savings moneyView `json:"savings"`
}

func viewMonthPoint(p analytics.MonthPoint) monthPointView {
	return monthPointView{
		Year:    p.Year,
		Month:   int(p.Month),
		Label:   p.Label,
		Income:  viewMoney(p.Income),
		Expense: viewMoney(p.Expense),
		Savings: viewMoney(p.Savings),
	}
}

type categoryShareView struct {
	CategoryID int64     `json:"category_id"`
	Name       string    `json:"name"`
	Amount     moneyView `json:"amount"`
	Percentage float64   `json:"percentage"`
}

func viewCategoryShare(s analytics.CategoryShare) categoryShareView {
	return categoryShareView{
		CategoryID: s.CategoryID,
		Name:       s.Name,
		Amount:     viewMoney(s.Amount),
		Percentage: s.Percentage,
	}
}
