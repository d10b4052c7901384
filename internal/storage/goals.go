package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"finshare/internal/core"
)

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.SharedGoal) (core.SharedGoal, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO shared_goals (creator_id, name, target_satang, current_satang, target_date, linked_account_id, share_code, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.CreatorID, g.Name, g.TargetAmount.Satang, g.CurrentAmount.Satang,
		nullTime(g.TargetDate), nullInt64(g.LinkedAccountID), g.ShareCode, g.Status, now, now)
	if err != nil {
		return core.SharedGoal{}, fmt.Errorf("create goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.SharedGoal{}, fmt.Errorf("create goal id: %w", err)
	}
	g.ID = id
	g.CreatedAt = now
	g.UpdatedAt = now

	slog.InfoContext(ctx, "Shared goal created",
		"goal_id", g.ID,
		"creator_id", g.CreatorID,
		"target_satang", g.TargetAmount.Satang)
	return g, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id int64) (core.SharedGoal, error) {
	row := r.db.QueryRowContext(ctx, goalSelect+` WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err != nil {
		return core.SharedGoal{}, fmt.Errorf("get goal %d: %w", id, notFound(err))
	}
	return g, nil
}

func (r *SQLiteRepository) GetGoalByShareCode(ctx context.Context, code string) (core.SharedGoal, error) {
	row := r.db.QueryRowContext(ctx, goalSelect+` WHERE share_code = ?`, code)
	g, err := scanGoal(row)
	if err != nil {
		return core.SharedGoal{}, fmt.Errorf("get goal by share code: %w", notFound(err))
	}
	return g, nil
}

// ListGoalsForUser returns goals the user created plus goals the user
// joined.
func (r *SQLiteRepository) ListGoalsForUser(ctx context.Context, userID int64) ([]core.SharedGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT g.id, g.creator_id, g.name, g.target_satang, g.current_satang, g.target_date, g.linked_account_id, g.share_code, g.status, g.created_at, g.updated_at
		FROM shared_goals g
		LEFT JOIN goal_members m ON m.goal_id = g.id
		WHERE g.creator_id = ? OR m.user_id = ?
		ORDER BY g.updated_at DESC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals for user %d: %w", userID, err)
	}
	defer rows.Close()

	var goals []core.SharedGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// ListReachedActiveGoals returns active goals whose contributions have
// met the target. The sweep worker completes them.
func (r *SQLiteRepository) ListReachedActiveGoals(ctx context.Context) ([]core.SharedGoal, error) {
	rows, err := r.db.QueryContext(ctx, goalSelect+`
		WHERE status = 'active' AND current_satang >= target_satang`)
	if err != nil {
		return nil, fmt.Errorf("list reached active goals: %w", err)
	}
	defer rows.Close()

	var goals []core.SharedGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.SharedGoal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shared_goals
		SET name = ?, target_satang = ?, target_date = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		g.Name, g.TargetAmount.Satang, nullTime(g.TargetDate), g.Status, time.Now().UTC(), g.ID)
	if err != nil {
		return fmt.Errorf("update goal %d: %w", g.ID, err)
	}
	return requireRow(res, g.ID)
}

func (r *SQLiteRepository) SetGoalStatus(ctx context.Context, id int64, status core.GoalStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shared_goals SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set status of goal %d: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Goal status changed", "goal_id", id, "status", status)
	return nil
}

// AddToGoalCurrent applies a signed delta to the accumulated amount.
func (r *SQLiteRepository) AddToGoalCurrent(ctx context.Context, id int64, deltaSatang int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shared_goals
		SET current_satang = current_satang + ?, updated_at = ?
		WHERE id = ? AND current_satang + ? >= 0`,
		deltaSatang, time.Now().UTC(), id, deltaSatang)
	if err != nil {
		return fmt.Errorf("add to goal %d: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shared_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Goal deleted", "goal_id", id)
	return nil
}

func (r *SQLiteRepository) AddGoalMember(ctx context.Context, m core.SharedGoalMember) (core.SharedGoalMember, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO goal_members (goal_id, user_id, contributed_satang, joined_at)
		VALUES (?, ?, ?, ?)`,
		m.GoalID, m.UserID, m.Contributed.Satang, now)
	if err != nil {
		return core.SharedGoalMember{}, fmt.Errorf("add goal member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.SharedGoalMember{}, fmt.Errorf("add goal member id: %w", err)
	}
	m.ID = id
	m.JoinedAt = now
	return m, nil
}

func (r *SQLiteRepository) GetGoalMember(ctx context.Context, goalID, userID int64) (core.SharedGoalMember, error) {
	var m core.SharedGoalMember
	err := r.db.QueryRowContext(ctx, `
		SELECT id, goal_id, user_id, contributed_satang, joined_at
		FROM goal_members WHERE goal_id = ? AND user_id = ?`, goalID, userID).
		Scan(&m.ID, &m.GoalID, &m.UserID, &m.Contributed.Satang, &m.JoinedAt)
	if err != nil {
		return core.SharedGoalMember{}, fmt.Errorf("get member of goal %d: %w", goalID, notFound(err))
	}
	return m, nil
}

func (r *SQLiteRepository) ListGoalMembers(ctx context.Context, goalID int64) ([]core.SharedGoalMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, goal_id, user_id, contributed_satang, joined_at
		FROM goal_members WHERE goal_id = ? ORDER BY joined_at`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list members of goal %d: %w", goalID, err)
	}
	defer rows.Close()

	var members []core.SharedGoalMember
	for rows.Next() {
		var m core.SharedGoalMember
		if err := rows.Scan(&m.ID, &m.GoalID, &m.UserID, &m.Contributed.Satang, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan goal member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddToMemberContribution bumps the member's running total by delta.
func (r *SQLiteRepository) AddToMemberContribution(ctx context.Context, goalID, userID, deltaSatang int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goal_members SET contributed_satang = contributed_satang + ?
		WHERE goal_id = ? AND user_id = ?`,
		deltaSatang, goalID, userID)
	if err != nil {
		return fmt.Errorf("add contribution of user %d to goal %d: %w", userID, goalID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add contribution rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateContribution(ctx context.Context, c core.GoalContribution) (core.GoalContribution, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO goal_contributions (goal_id, user_id, amount_satang, note, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.GoalID, c.UserID, c.Amount.Satang, c.Note, now)
	if err != nil {
		return core.GoalContribution{}, fmt.Errorf("create contribution: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.GoalContribution{}, fmt.Errorf("create contribution id: %w", err)
	}
	c.ID = id
	c.CreatedAt = now

	slog.InfoContext(ctx, "Goal contribution recorded",
		"goal_id", c.GoalID,
		"user_id", c.UserID,
		"amount_satang", c.Amount.Satang)
	return c, nil
}

func (r *SQLiteRepository) DeleteContribution(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goal_contributions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contribution %d: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *SQLiteRepository) ListContributions(ctx context.Context, goalID int64) ([]core.GoalContribution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, goal_id, user_id, amount_satang, note, created_at
		FROM goal_contributions WHERE goal_id = ? ORDER BY created_at DESC, id DESC`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list contributions of goal %d: %w", goalID, err)
	}
	defer rows.Close()

	var contributions []core.GoalContribution
	for rows.Next() {
		var c core.GoalContribution
		if err := rows.Scan(&c.ID, &c.GoalID, &c.UserID, &c.Amount.Satang, &c.Note, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

const goalSelect = `
	SELECT id, creator_id, name, target_satang, current_satang, target_date, linked_account_id, share_code, status, created_at, updated_at
	FROM shared_goals`

func scanGoal(row rowScanner) (core.SharedGoal, error) {
	var g core.SharedGoal
	var targetDate sql.NullTime
	var linked sql.NullInt64
	err := row.Scan(&g.ID, &g.CreatorID, &g.Name, &g.TargetAmount.Satang, &g.CurrentAmount.Satang,
		&targetDate, &linked, &g.ShareCode, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	if targetDate.Valid {
		g.TargetDate = targetDate.Time
	}
	g.LinkedAccountID = int64Ptr(linked)
	return g, err
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
