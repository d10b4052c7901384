package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finshare/internal/core"
)

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, name, category_id, amount_satang, year, month, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Name, b.CategoryID, b.Amount.Satang, b.Year, b.Month, now, now)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget id: %w", err)
	}
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now

	slog.InfoContext(ctx, "Budget created",
		"budget_id", b.ID,
		"user_id", b.UserID,
		"year", b.Year,
		"month", b.Month)
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, category_id, amount_satang, year, month, created_at, updated_at
		FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, notFound(err))
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, category_id, amount_satang, year, month, created_at, updated_at
		FROM budgets WHERE user_id = ? ORDER BY year DESC, month DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets for user %d: %w", userID, err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET name = ?, category_id = ?, amount_satang = ?, year = ?, month = ?, updated_at = ?
		WHERE id = ?`,
		b.Name, b.CategoryID, b.Amount.Satang, b.Year, b.Month, time.Now().UTC(), b.ID)
	if err != nil {
		return fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	return requireRow(res, b.ID)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget deleted", "budget_id", id)
	return nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.CategoryID, &b.Amount.Satang,
		&b.Year, &b.Month, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}
