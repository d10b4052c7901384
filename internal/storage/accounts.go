package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"finshare/internal/core"
)

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (owner_id, name, type, balance_satang, bank_name, bank_number, color, share_code, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.OwnerID, a.Name, a.Type, a.Balance.Satang, a.BankName, a.BankNumber, a.Color, a.ShareCode, a.Active, now, now)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("create account id: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now

	slog.InfoContext(ctx, "Account created",
		"account_id", a.ID,
		"owner_id", a.OwnerID,
		"type", a.Type)

	return a, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, type, balance_satang, bank_name, bank_number, color, share_code, active, created_at, updated_at
		FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, notFound(err))
	}
	return a, nil
}

func (r *SQLiteRepository) GetAccountByShareCode(ctx context.Context, code string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, type, balance_satang, bank_name, bank_number, color, share_code, active, created_at, updated_at
		FROM accounts WHERE share_code = ?`, code)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account by share code: %w", notFound(err))
	}
	return a, nil
}

// ListAccountsForUser returns accounts the user owns plus accounts the
// user joined as a member, most recently updated first.
func (r *SQLiteRepository) ListAccountsForUser(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT a.id, a.owner_id, a.name, a.type, a.balance_satang, a.bank_name, a.bank_number, a.color, a.share_code, a.active, a.created_at, a.updated_at
		FROM accounts a
		LEFT JOIN account_members m ON m.account_id = a.id
		WHERE a.owner_id = ? OR m.user_id = ?
		ORDER BY a.updated_at DESC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts for user %d: %w", userID, err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, bank_name = ?, bank_number = ?, color = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		a.Name, a.BankName, a.BankNumber, a.Color, a.Active, time.Now().UTC(), a.ID)
	if err != nil {
		return fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return requireRow(res, a.ID)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return requireRow(res, id)
}

// AdjustBalance applies a signed delta to the account balance. A
// negative delta that would take the balance below zero affects no row
// and returns core.ErrInsufficientBalance.
func (r *SQLiteRepository) AdjustBalance(ctx context.Context, id int64, deltaSatang int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET balance_satang = balance_satang + ?, updated_at = ?
		WHERE id = ? AND balance_satang + ? >= 0`,
		deltaSatang, time.Now().UTC(), id, deltaSatang)
	if err != nil {
		return fmt.Errorf("adjust balance of account %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust balance of account %d: %w", id, err)
	}
	if n == 0 {
		if _, err := r.GetAccount(ctx, id); err != nil {
			return err
		}
		return core.ErrInsufficientBalance
	}

	slog.InfoContext(ctx, "Account balance adjusted",
		"account_id", id,
		"delta_satang", deltaSatang)
	return nil
}

func (r *SQLiteRepository) AddAccountMember(ctx context.Context, m core.AccountMember) (core.AccountMember, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO account_members (account_id, user_id, role, permissions, joined_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.AccountID, m.UserID, m.Role, joinPermissions(m.Permissions), now)
	if err != nil {
		return core.AccountMember{}, fmt.Errorf("add account member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.AccountMember{}, fmt.Errorf("add account member id: %w", err)
	}
	m.ID = id
	m.JoinedAt = now
	return m, nil
}

func (r *SQLiteRepository) GetAccountMember(ctx context.Context, accountID, userID int64) (core.AccountMember, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, user_id, role, permissions, joined_at
		FROM account_members WHERE account_id = ? AND user_id = ?`, accountID, userID)
	m, err := scanAccountMember(row)
	if err != nil {
		return core.AccountMember{}, fmt.Errorf("get member of account %d: %w", accountID, notFound(err))
	}
	return m, nil
}

func (r *SQLiteRepository) ListAccountMembers(ctx context.Context, accountID int64) ([]core.AccountMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, user_id, role, permissions, joined_at
		FROM account_members WHERE account_id = ? ORDER BY joined_at`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list members of account %d: %w", accountID, err)
	}
	defer rows.Close()

	var members []core.AccountMember
	for rows.Next() {
		m, err := scanAccountMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *SQLiteRepository) UpdateAccountMember(ctx context.Context, m core.AccountMember) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE account_members SET role = ?, permissions = ? WHERE id = ?`,
		m.Role, joinPermissions(m.Permissions), m.ID)
	if err != nil {
		return fmt.Errorf("update account member %d: %w", m.ID, err)
	}
	return requireRow(res, m.ID)
}

func (r *SQLiteRepository) DeleteAccountMember(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM account_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account member %d: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *SQLiteRepository) CreateAccountTransaction(ctx context.Context, t core.AccountTransaction) (core.AccountTransaction, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO account_transactions (account_id, type, amount_satang, note, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.AccountID, t.Type, t.Amount.Satang, t.Note, now)
	if err != nil {
		return core.AccountTransaction{}, fmt.Errorf("create account transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.AccountTransaction{}, fmt.Errorf("create account transaction id: %w", err)
	}
	t.ID = id
	t.CreatedAt = now

	slog.InfoContext(ctx, "Account transaction recorded",
		"account_id", t.AccountID,
		"type", t.Type,
		"amount_satang", t.Amount.Satang)
	return t, nil
}

func (r *SQLiteRepository) DeleteAccountTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM account_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account transaction %d: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *SQLiteRepository) ListAccountTransactions(ctx context.Context, accountID int64) ([]core.AccountTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, type, amount_satang, note, created_at
		FROM account_transactions WHERE account_id = ? ORDER BY created_at DESC, id DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions of account %d: %w", accountID, err)
	}
	defer rows.Close()

	var txns []core.AccountTransaction
	for rows.Next() {
		var t core.AccountTransaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount.Satang, &t.Note, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (r *SQLiteRepository) CreateTransfer(ctx context.Context, t core.AccountTransfer) (core.AccountTransfer, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO account_transfers (from_account_id, to_account_id, amount_satang, note, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.FromAccountID, t.ToAccountID, t.Amount.Satang, t.Note, now)
	if err != nil {
		return core.AccountTransfer{}, fmt.Errorf("create transfer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.AccountTransfer{}, fmt.Errorf("create transfer id: %w", err)
	}
	t.ID = id
	t.CreatedAt = now

	slog.InfoContext(ctx, "Transfer recorded",
		"from_account_id", t.FromAccountID,
		"to_account_id", t.ToAccountID,
		"amount_satang", t.Amount.Satang)
	return t, nil
}

func (r *SQLiteRepository) DeleteTransfer(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM account_transfers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transfer %d: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *SQLiteRepository) ListTransfers(ctx context.Context, accountID int64) ([]core.AccountTransfer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, from_account_id, to_account_id, amount_satang, note, created_at
		FROM account_transfers
		WHERE from_account_id = ? OR to_account_id = ?
		ORDER BY created_at DESC, id DESC`, accountID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transfers of account %d: %w", accountID, err)
	}
	defer rows.Close()

	var transfers []core.AccountTransfer
	for rows.Next() {
		var t core.AccountTransfer
		if err := rows.Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &t.Amount.Satang, &t.Note, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Type, &a.Balance.Satang,
		&a.BankName, &a.BankNumber, &a.Color, &a.ShareCode, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanAccountMember(row rowScanner) (core.AccountMember, error) {
	var m core.AccountMember
	var perms string
	err := row.Scan(&m.ID, &m.AccountID, &m.UserID, &m.Role, &perms, &m.JoinedAt)
	m.Permissions = splitPermissions(perms)
	return m, err
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for id %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
