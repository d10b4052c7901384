package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"finshare/internal/amqp"
	"finshare/internal/core"
	"finshare/internal/storage"
)

// AccountStore is the persistence surface the account service needs.
// *storage.SQLiteRepository satisfies it.
type AccountStore interface {
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	GetAccountByShareCode(ctx context.Context, code string) (core.Account, error)
	ListAccountsForUser(ctx context.Context, userID int64) ([]core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) error
	DeleteAccount(ctx context.Context, id int64) error
	AdjustBalance(ctx context.Context, id int64, deltaSatang int64) error

	AddAccountMember(ctx context.Context, m core.AccountMember) (core.AccountMember, error)
	GetAccountMember(ctx context.Context, accountID, userID int64) (core.AccountMember, error)
	ListAccountMembers(ctx context.Context, accountID int64) ([]core.AccountMember, error)
	UpdateAccountMember(ctx context.Context, m core.AccountMember) error
	DeleteAccountMember(ctx context.Context, id int64) error

	CreateAccountTransaction(ctx context.Context, t core.AccountTransaction) (core.AccountTransaction, error)
	DeleteAccountTransaction(ctx context.Context, id int64) error
	ListAccountTransactions(ctx context.Context, accountID int64) ([]core.AccountTransaction, error)

	CreateTransfer(ctx context.Context, t core.AccountTransfer) (core.AccountTransfer, error)
	DeleteTransfer(ctx context.Context, id int64) error
	ListTransfers(ctx context.Context, accountID int64) ([]core.AccountTransfer, error)
}

// Publisher emits activity events after money-moving operations. A nil
// publisher disables events without changing service behavior.
type Publisher interface {
	PublishActivity(ctx context.Context, ev *amqp.ActivityEvent) error
}

type AccountService struct {
	store  AccountStore
	events Publisher
}

func NewAccountService(store AccountStore, events Publisher) *AccountService {
	return &AccountService{store: store, events: events}
}

func (s *AccountService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.Active = true
	if a.IsShared() {
		a.ShareCode = uuid.NewString()
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	return s.store.CreateAccount(ctx, a)
}

func (s *AccountService) GetAccount(ctx context.Context, accountID, actorID int64) (core.Account, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return core.Account{}, err
	}
	member, err := s.memberOf(ctx, account, actorID)
	if err != nil {
		return core.Account{}, err
	}
	if !member.Has(core.PermView) {
		return core.Account{}, core.ErrPermissionDenied
	}
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.store.ListAccountsForUser(ctx, userID)
}

func (s *AccountService) UpdateAccount(ctx context.Context, actorID int64, a core.Account) error {
	existing, err := s.store.GetAccount(ctx, a.ID)
	if err != nil {
		return err
	}
	if existing.OwnerID != actorID {
		return core.ErrPermissionDenied
	}
	if err := a.Validate(); err != nil {
		return err
	}
	return s.store.UpdateAccount(ctx, a)
}

// DeleteAccount removes an account. Only the owner may delete, and only
// once the balance is zero; the money has to be withdrawn or transferred
// out first.
func (s *AccountService) DeleteAccount(ctx context.Context, accountID, actorID int64) error {
	existing, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if existing.OwnerID != actorID {
		return core.ErrPermissionDenied
	}
	if existing.Balance.Satang != 0 {
		return core.ErrAccountNotEmpty
	}
	return s.store.DeleteAccount(ctx, accountID)
}

// Deposit credits the account and records an immutable transaction.
// Both writes run inside a saga so a failed balance update removes the
// already written transaction record.
func (s *AccountService) Deposit(ctx context.Context, accountID, actorID int64, amount core.Money, note string) (core.AccountTransaction, error) {
	if err := amount.Validate(); err != nil {
		return core.AccountTransaction{}, err
	}
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return core.AccountTransaction{}, err
	}
	member, err := s.memberOf(ctx, account, actorID)
	if err != nil {
		return core.AccountTransaction{}, err
	}
	if !member.Has(core.PermDeposit) {
		return core.AccountTransaction{}, core.ErrPermissionDenied
	}

	var txn core.AccountTransaction
	saga := NewSaga("account.deposit").
		AddStep(Step{
			Name: "record transaction",
			Run: func(ctx context.Context) error {
				var err error
				txn, err = s.store.CreateAccountTransaction(ctx, core.AccountTransaction{
					AccountID: accountID,
					Type:      core.TxnDeposit,
					Amount:    amount,
					Note:      note,
				})
				return err
			},
			Compensate: func(ctx context.Context) error {
				return s.store.DeleteAccountTransaction(ctx, txn.ID)
			},
		}).
		AddStep(Step{
			Name: "credit balance",
			Run: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, accountID, amount.Satang)
			},
			Compensate: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, accountID, -amount.Satang)
			},
		})

	if err := saga.Execute(ctx); err != nil {
		return core.AccountTransaction{}, err
	}

	s.publish(ctx, amqp.NewActivityEvent(amqp.EventDeposit, actorID, accountID, amount.Satang))
	return txn, nil
}

// Withdraw rejects amounts the balance cannot cover before any write
// happens, so a failed withdrawal leaves no trace.
func (s *AccountService) Withdraw(ctx context.Context, accountID, actorID int64, amount core.Money, note string) (core.AccountTransaction, error) {
	if err := amount.Validate(); err != nil {
		return core.AccountTransaction{}, err
	}
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return core.AccountTransaction{}, err
	}
	member, err := s.memberOf(ctx, account, actorID)
	if err != nil {
		return core.AccountTransaction{}, err
	}
	if !member.Has(core.PermWithdraw) {
		return core.AccountTransaction{}, core.ErrPermissionDenied
	}
	if !account.CanWithdraw(amount) {
		return core.AccountTransaction{}, core.ErrInsufficientBalance
	}

	var txn core.AccountTransaction
	saga := NewSaga("account.withdraw").
		AddStep(Step{
			Name: "debit balance",
			Run: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, accountID, -amount.Satang)
			},
			Compensate: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, accountID, amount.Satang)
			},
		}).
		AddStep(Step{
			Name: "record transaction",
			Run: func(ctx context.Context) error {
				var err error
				txn, err = s.store.CreateAccountTransaction(ctx, core.AccountTransaction{
					AccountID: accountID,
					Type:      core.TxnWithdraw,
					Amount:    amount,
					Note:      note,
				})
				return err
			},
			Compensate: func(ctx context.Context) error {
				return s.store.DeleteAccountTransaction(ctx, txn.ID)
			},
		})

	if err := saga.Execute(ctx); err != nil {
		return core.AccountTransaction{}, err
	}

	s.publish(ctx, amqp.NewActivityEvent(amqp.EventWithdraw, actorID, accountID, amount.Satang))
	return txn, nil
}

// Transfer moves money between two accounts. Debit, credit and the
// transfer record run as one saga; any failure rolls the earlier
// writes back.
func (s *AccountService) Transfer(ctx context.Context, fromID, toID, actorID int64, amount core.Money, note string) (core.AccountTransfer, error) {
	if fromID == toID {
		return core.AccountTransfer{}, core.ErrSameAccount
	}
	if err := amount.Validate(); err != nil {
		return core.AccountTransfer{}, err
	}
	from, err := s.store.GetAccount(ctx, fromID)
	if err != nil {
		return core.AccountTransfer{}, err
	}
	if _, err := s.store.GetAccount(ctx, toID); err != nil {
		return core.AccountTransfer{}, err
	}
	member, err := s.memberOf(ctx, from, actorID)
	if err != nil {
		return core.AccountTransfer{}, err
	}
	if !member.Has(core.PermWithdraw) {
		return core.AccountTransfer{}, core.ErrPermissionDenied
	}
	if !from.CanWithdraw(amount) {
		return core.AccountTransfer{}, core.ErrInsufficientBalance
	}

	var transfer core.AccountTransfer
	saga := NewSaga("account.transfer").
		AddStep(Step{
			Name: "debit source",
			Run: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, fromID, -amount.Satang)
			},
			Compensate: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, fromID, amount.Satang)
			},
		}).
		AddStep(Step{
			Name: "credit destination",
			Run: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, toID, amount.Satang)
			},
			Compensate: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, toID, -amount.Satang)
			},
		}).
		AddStep(Step{
			Name: "record transfer",
			Run: func(ctx context.Context) error {
				var err error
				transfer, err = s.store.CreateTransfer(ctx, core.AccountTransfer{
					FromAccountID: fromID,
					ToAccountID:   toID,
					Amount:        amount,
					Note:          note,
				})
				return err
			},
			Compensate: func(ctx context.Context) error {
				return s.store.DeleteTransfer(ctx, transfer.ID)
			},
		})

	if err := saga.Execute(ctx); err != nil {
		return core.AccountTransfer{}, err
	}

	s.publish(ctx, amqp.NewActivityEvent(amqp.EventTransfer, actorID, fromID, amount.Satang))
	return transfer, nil
}

// JoinByShareCode adds the user to a shared account with the default
// view and deposit permissions.
func (s *AccountService) JoinByShareCode(ctx context.Context, code string, userID int64) (core.AccountMember, error) {
	account, err := s.store.GetAccountByShareCode(ctx, code)
	if err != nil {
		return core.AccountMember{}, err
	}
	if !account.IsShared() {
		return core.AccountMember{}, core.ErrInvalidAccountType
	}
	if account.OwnerID == userID {
		return core.AccountMember{}, core.ErrPermissionDenied
	}
	return s.store.AddAccountMember(ctx, core.AccountMember{
		AccountID:   account.ID,
		UserID:      userID,
		Role:        core.RoleMember,
		Permissions: []core.Permission{core.PermView, core.PermDeposit},
	})
}

func (s *AccountService) ListMembers(ctx context.Context, accountID, actorID int64) ([]core.AccountMember, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberOf(ctx, account, actorID); err != nil {
		return nil, err
	}
	return s.store.ListAccountMembers(ctx, accountID)
}

// UpdateMember changes a member's role or permissions. Only the owner
// and admins may do this, the owner row is immutable, and nobody can
// be promoted to owner.
func (s *AccountService) UpdateMember(ctx context.Context, actorID int64, m core.AccountMember) error {
	account, err := s.store.GetAccount(ctx, m.AccountID)
	if err != nil {
		return err
	}
	actor, err := s.memberOf(ctx, account, actorID)
	if err != nil {
		return err
	}
	if actor.Role != core.RoleOwner && actor.Role != core.RoleAdmin {
		return core.ErrPermissionDenied
	}
	if m.Role == core.RoleOwner {
		return core.ErrOwnerImmutable
	}
	existing, err := s.store.GetAccountMember(ctx, m.AccountID, m.UserID)
	if err != nil {
		return err
	}
	if existing.Role == core.RoleOwner {
		return core.ErrOwnerImmutable
	}
	if err := m.Validate(); err != nil {
		return err
	}
	m.ID = existing.ID
	return s.store.UpdateAccountMember(ctx, m)
}

// RemoveMember removes a member. Members may remove themselves;
// otherwise the actor must be owner or admin. The owner cannot be
// removed.
func (s *AccountService) RemoveMember(ctx context.Context, accountID, userID, actorID int64) error {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if account.OwnerID == userID {
		return core.ErrOwnerImmutable
	}
	if actorID != userID {
		actor, err := s.memberOf(ctx, account, actorID)
		if err != nil {
			return err
		}
		if actor.Role != core.RoleOwner && actor.Role != core.RoleAdmin {
			return core.ErrPermissionDenied
		}
	}
	member, err := s.store.GetAccountMember(ctx, accountID, userID)
	if err != nil {
		return err
	}
	return s.store.DeleteAccountMember(ctx, member.ID)
}

func (s *AccountService) ListAccountTransactions(ctx context.Context, accountID, actorID int64) ([]core.AccountTransaction, error) {
	if _, err := s.GetAccount(ctx, accountID, actorID); err != nil {
		return nil, err
	}
	return s.store.ListAccountTransactions(ctx, accountID)
}

func (s *AccountService) ListTransfers(ctx context.Context, accountID, actorID int64) ([]core.AccountTransfer, error) {
	if _, err := s.GetAccount(ctx, accountID, actorID); err != nil {
		return nil, err
	}
	return s.store.ListTransfers(ctx, accountID)
}

// memberOf resolves the actor's membership. The owner gets a
// synthesized owner row; a stranger gets ErrPermissionDenied.
func (s *AccountService) memberOf(ctx context.Context, account core.Account, userID int64) (core.AccountMember, error) {
	if account.OwnerID == userID {
		return core.AccountMember{AccountID: account.ID, UserID: userID, Role: core.RoleOwner}, nil
	}
	member, err := s.store.GetAccountMember(ctx, account.ID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.AccountMember{}, core.ErrPermissionDenied
		}
		return core.AccountMember{}, err
	}
	return member, nil
}

func (s *AccountService) publish(ctx context.Context, ev *amqp.ActivityEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishActivity(ctx, ev); err != nil {
		slog.WarnContext(ctx, "Failed to publish activity event",
			"event_id", ev.EventID,
			"kind", ev.Kind,
			"error", err)
	}
}
