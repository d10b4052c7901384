package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"finshare/internal/core"
)

func (r *SQLiteRepository) CreateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO bills (owner_id, name, total_satang, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		b.OwnerID, b.Name, b.Total.Satang, core.BillActive, now)
	if err != nil {
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Bill{}, fmt.Errorf("create bill id: %w", err)
	}
	b.ID = id
	b.Status = core.BillActive
	b.CreatedAt = now

	slog.InfoContext(ctx, "Bill created",
		"bill_id", b.ID,
		"owner_id", b.OwnerID,
		"total_satang", b.Total.Satang)
	return b, nil
}

func (r *SQLiteRepository) GetBill(ctx context.Context, id int64) (core.Bill, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, total_satang, status, created_at, settled_at
		FROM bills WHERE id = ?`, id)
	b, err := scanBill(row)
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill %d: %w", id, notFound(err))
	}
	return b, nil
}

// ListBillsForUser returns bills the user owns plus bills the user
// participates in, newest first.
func (r *SQLiteRepository) ListBillsForUser(ctx context.Context, userID int64) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT b.id, b.owner_id, b.name, b.total_satang, b.status, b.created_at, b.settled_at
		FROM bills b
		LEFT JOIN bill_members m ON m.bill_id = b.id
		WHERE b.owner_id = ? OR m.user_id = ?
		ORDER BY b.created_at DESC, b.id DESC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list bills for user %d: %w", userID, err)
	}
	defer rows.Close()

	var bills []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// ListActiveBills returns all bills that have not settled yet. The
// sweep worker walks these to catch bills whose last payment event was
// lost.
func (r *SQLiteRepository) ListActiveBills(ctx context.Context) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, total_satang, status, created_at, settled_at
		FROM bills WHERE status = 'active'`)
	if err != nil {
		return nil, fmt.Errorf("list active bills: %w", err)
	}
	defer rows.Close()

	var bills []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// SettleBill marks the bill settled. It only touches active bills, so
// the settled timestamp is written exactly once.
func (r *SQLiteRepository) SettleBill(ctx context.Context, id int64, settledAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bills SET status = 'settled', settled_at = ?
		WHERE id = ? AND status = 'active'`, settledAt, id)
	if err != nil {
		return fmt.Errorf("settle bill %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("settle bill %d: %w", id, err)
	}
	if n == 0 {
		if _, err := r.GetBill(ctx, id); err != nil {
			return err
		}
		return core.ErrBillSettled
	}

	slog.InfoContext(ctx, "Bill settled", "bill_id", id)
	return nil
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bill %d: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *SQLiteRepository) AddBillMember(ctx context.Context, m core.BillMember) (core.BillMember, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO bill_members (bill_id, user_id, name, share_satang, paid)
		VALUES (?, ?, ?, ?, 0)`,
		m.BillID, m.UserID, m.Name, m.Share.Satang)
	if err != nil {
		return core.BillMember{}, fmt.Errorf("add bill member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.BillMember{}, fmt.Errorf("add bill member id: %w", err)
	}
	m.ID = id
	m.Paid = false
	m.PaidAt = nil
	return m, nil
}

func (r *SQLiteRepository) GetBillMember(ctx context.Context, id int64) (core.BillMember, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, bill_id, user_id, name, share_satang, paid, paid_at
		FROM bill_members WHERE id = ?`, id)
	m, err := scanBillMember(row)
	if err != nil {
		return core.BillMember{}, fmt.Errorf("get bill member %d: %w", id, notFound(err))
	}
	return m, nil
}

func (r *SQLiteRepository) ListBillMembers(ctx context.Context, billID int64) ([]core.BillMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, bill_id, user_id, name, share_satang, paid, paid_at
		FROM bill_members WHERE bill_id = ? ORDER BY id`, billID)
	if err != nil {
		return nil, fmt.Errorf("list members of bill %d: %w", billID, err)
	}
	defer rows.Close()

	var members []core.BillMember
	for rows.Next() {
		m, err := scanBillMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *SQLiteRepository) SetBillMemberPaid(ctx context.Context, id int64, paid bool, paidAt *time.Time) error {
	var at sql.NullTime
	if paidAt != nil {
		at = sql.NullTime{Time: *paidAt, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE bill_members SET paid = ?, paid_at = ? WHERE id = ?`, paid, at, id)
	if err != nil {
		return fmt.Errorf("set paid of bill member %d: %w", id, err)
	}
	return requireRow(res, id)
}

func scanBill(row rowScanner) (core.Bill, error) {
	var b core.Bill
	var settledAt sql.NullTime
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Total.Satang, &b.Status, &b.CreatedAt, &settledAt)
	if settledAt.Valid {
		t := settledAt.Time
		b.SettledAt = &t
	}
	return b, err
}

func scanBillMember(row rowScanner) (core.BillMember, error) {
	var m core.BillMember
	var paidAt sql.NullTime
	err := row.Scan(&m.ID, &m.BillID, &m.UserID, &m.Name, &m.Share.Satang, &m.Paid, &paidAt)
	if paidAt.Valid {
		t := paidAt.Time
		m.PaidAt = &t
	}
	return m, err
}
