package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"finshare/internal/core"
)

// TransactionFilter narrows ListTransactions and SumTransactions. Zero
// fields are ignored; From/To form a half-open interval [From, To).
type TransactionFilter struct {
	UserID     int64
	AccountID  int64
	CategoryID int64
	BudgetID   int64
	Type       core.TransactionType
	From       time.Time
	To         time.Time
}

func (f TransactionFilter) where() (string, []any) {
	clause := " WHERE 1=1"
	var args []any
	if f.UserID != 0 {
		clause += " AND user_id = ?"
		args = append(args, f.UserID)
	}
	if f.AccountID != 0 {
		clause += " AND account_id = ?"
		args = append(args, f.AccountID)
	}
	if f.CategoryID != 0 {
		clause += " AND category_id = ?"
		args = append(args, f.CategoryID)
	}
	if f.BudgetID != 0 {
		clause += " AND budget_id = ?"
		args = append(args, f.BudgetID)
	}
	if f.Type != "" {
		clause += " AND type = ?"
		args = append(args, f.Type)
	}
	if !f.From.IsZero() {
		clause += " AND txn_date >= ?"
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		clause += " AND txn_date < ?"
		args = append(args, f.To)
	}
	return clause, args
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, account_id, category_id, budget_id, type, amount_satang, txn_date, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.AccountID, t.CategoryID, nullInt64(t.BudgetID), t.Type, t.Amount.Satang, t.Date, t.Note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction id: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction recorded",
		"transaction_id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"amount_satang", t.Amount.Satang)
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, account_id, category_id, budget_id, type, amount_satang, txn_date, note
		FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, notFound(err))
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	clause, args := f.where()
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, account_id, category_id, budget_id, type, amount_satang, txn_date, note
		FROM transactions`+clause+` ORDER BY txn_date DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// SumTransactions totals the amounts matching the filter. A filter that
// matches nothing sums to zero.
func (r *SQLiteRepository) SumTransactions(ctx context.Context, f TransactionFilter) (core.Money, error) {
	clause, args := f.where()
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_satang), 0) FROM transactions`+clause, args...).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Money{Satang: total}, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, kind FROM categories ORDER BY kind, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name, kind FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Kind)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, notFound(err))
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories (name, kind) VALUES (?, ?)`, c.Name, c.Kind)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("create category id: %w", err)
	}
	c.ID = id
	return c, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var budgetID sql.NullInt64
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &budgetID,
		&t.Type, &t.Amount.Satang, &t.Date, &t.Note)
	t.BudgetID = int64Ptr(budgetID)
	return t, err
}
