package core

import (
	"errors"
	"strings"
	"time"
)

const (
	AccountPersonal AccountType = "personal"
	AccountShared   AccountType = "shared"
	AccountBusiness AccountType = "business"
)

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

const (
	PermView     Permission = "view"
	PermDeposit  Permission = "deposit"
	PermWithdraw Permission = "withdraw"
	PermInvite   Permission = "invite"
)

const (
	TxnDeposit  AccountTxnType = "deposit"
	TxnWithdraw AccountTxnType = "withdraw"
)

type (
	AccountType    string
	MemberRole     string
	Permission     string
	AccountTxnType string

	// Account is a money container owned by a user. Shared accounts carry
	// a share code that other users can join through.
	Account struct {
		ID         int64
		OwnerID    int64
		Name       string
		Type       AccountType
		Balance    Money
		BankName   string
		BankNumber string
		Color      string
		ShareCode  string
		Active     bool
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	// AccountMember joins a user to a shared account with a role and a
	// permission set. The owner row is created with the account and its
	// role is never editable.
	AccountMember struct {
		ID          int64
		AccountID   int64
		UserID      int64
		Role        MemberRole
		Permissions []Permission
		JoinedAt    time.Time
	}

	// AccountTransaction is an immutable deposit or withdrawal record
	// against a single account.
	AccountTransaction struct {
		ID        int64
		AccountID int64
		Type      AccountTxnType
		Amount    Money
		Note      string
		CreatedAt time.Time
	}

	// AccountTransfer is an immutable record of a completed movement
	// between two accounts.
	AccountTransfer struct {
		ID            int64
		FromAccountID int64
		ToAccountID   int64
		Amount        Money
		Note          string
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidAccountType  = errors.New("invalid account type")
	ErrInvalidRole         = errors.New("invalid member role")
	ErrInvalidPermission   = errors.New("invalid permission")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotEmpty     = errors.New("account still holds a balance")
	ErrOwnerImmutable      = errors.New("owner role cannot be changed")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrSameAccount         = errors.New("transfer source and destination are the same account")
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountPersonal, AccountShared, AccountBusiness:
		return true
	}
	return false
}

func (r MemberRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

func (p Permission) Valid() bool {
	switch p {
	case PermView, PermDeposit, PermWithdraw, PermInvite:
		return true
	}
	return false
}

func (a Account) Validate() error {
	if len(strings.TrimSpace(a.Name)) == 0 {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	if a.Balance.Satang < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsShared reports whether the account can be joined by share code.
func (a Account) IsShared() bool {
	return a.Type == AccountShared
}

// CanWithdraw reports whether the account balance covers amount.
// Withdrawals that fail this check are rejected before any write happens.
func (a Account) CanWithdraw(amount Money) bool {
	return amount.Satang > 0 && a.Balance.Satang >= amount.Satang
}

func (m AccountMember) Validate() error {
	if !m.Role.Valid() {
		return ErrInvalidRole
	}
	for _, p := range m.Permissions {
		if !p.Valid() {
			return ErrInvalidPermission
		}
	}
	return nil
}

// Has reports whether the member carries the given permission.
// Owners implicitly hold every permission.
func (m AccountMember) Has(p Permission) bool {
	if m.Role == RoleOwner {
		return true
	}
	for _, got := range m.Permissions {
		if got == p {
			return true
		}
	}
	return false
}

func (t AccountTransaction) Validate() error {
	if t.Type != TxnDeposit && t.Type != TxnWithdraw {
		return errors.New("invalid account transaction type")
	}
	return t.Amount.Validate()
}

func (t AccountTransfer) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}
	return t.Amount.Validate()
}
