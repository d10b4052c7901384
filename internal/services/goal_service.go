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

type GoalStore interface {
	CreateGoal(ctx context.Context, g core.SharedGoal) (core.SharedGoal, error)
	GetGoal(ctx context.Context, id int64) (core.SharedGoal, error)
	GetGoalByShareCode(ctx context.Context, code string) (core.SharedGoal, error)
	ListGoalsForUser(ctx context.Context, userID int64) ([]core.SharedGoal, error)
	UpdateGoal(ctx context.Context, g core.SharedGoal) error
	SetGoalStatus(ctx context.Context, id int64, status core.GoalStatus) error
	AddToGoalCurrent(ctx context.Context, id int64, deltaSatang int64) error
	DeleteGoal(ctx context.Context, id int64) error

	AddGoalMember(ctx context.Context, m core.SharedGoalMember) (core.SharedGoalMember, error)
	GetGoalMember(ctx context.Context, goalID, userID int64) (core.SharedGoalMember, error)
	ListGoalMembers(ctx context.Context, goalID int64) ([]core.SharedGoalMember, error)
	AddToMemberContribution(ctx context.Context, goalID, userID, deltaSatang int64) error

	CreateContribution(ctx context.Context, c core.GoalContribution) (core.GoalContribution, error)
	DeleteContribution(ctx context.Context, id int64) error
	ListContributions(ctx context.Context, goalID int64) ([]core.GoalContribution, error)

	AdjustBalance(ctx context.Context, id int64, deltaSatang int64) error
	GetAccount(ctx context.Context, id int64) (core.Account, error)
}

type GoalService struct {
	store  GoalStore
	events Publisher
}

func NewGoalService(store GoalStore, events Publisher) *GoalService {
	return &GoalService{store: store, events: events}
}

// CreateGoal creates the goal and enrolls the creator as its first
// member. A linked account must exist and belong to the creator.
func (s *GoalService) CreateGoal(ctx context.Context, g core.SharedGoal) (core.SharedGoal, error) {
	g.Status = core.GoalActive
	g.CurrentAmount = core.Money{}
	g.ShareCode = uuid.NewString()
	if err := g.Validate(); err != nil {
		return core.SharedGoal{}, err
	}
	if g.LinkedAccountID != nil {
		account, err := s.store.GetAccount(ctx, *g.LinkedAccountID)
		if err != nil {
			return core.SharedGoal{}, err
		}
		if account.OwnerID != g.CreatorID {
			return core.SharedGoal{}, core.ErrPermissionDenied
		}
	}

	created, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return core.SharedGoal{}, err
	}
	if _, err := s.store.AddGoalMember(ctx, core.SharedGoalMember{GoalID: created.ID, UserID: g.CreatorID}); err != nil {
		return core.SharedGoal{}, err
	}
	return created, nil
}

func (s *GoalService) GetGoal(ctx context.Context, goalID int64) (core.SharedGoal, error) {
	return s.store.GetGoal(ctx, goalID)
}

func (s *GoalService) ListGoals(ctx context.Context, userID int64) ([]core.SharedGoal, error) {
	return s.store.ListGoalsForUser(ctx, userID)
}

func (s *GoalService) ListMembers(ctx context.Context, goalID int64) ([]core.SharedGoalMember, error) {
	return s.store.ListGoalMembers(ctx, goalID)
}

func (s *GoalService) ListContributions(ctx context.Context, goalID int64) ([]core.GoalContribution, error) {
	return s.store.ListContributions(ctx, goalID)
}

// JoinByShareCode enrolls the user into an active goal.
func (s *GoalService) JoinByShareCode(ctx context.Context, code string, userID int64) (core.SharedGoalMember, error) {
	goal, err := s.store.GetGoalByShareCode(ctx, code)
	if err != nil {
		return core.SharedGoalMember{}, err
	}
	if goal.Status != core.GoalActive {
		return core.SharedGoalMember{}, core.ErrGoalNotActive
	}
	if _, err := s.store.GetGoalMember(ctx, goal.ID, userID); err == nil {
		return core.SharedGoalMember{}, core.ErrPermissionDenied
	} else if !errors.Is(err, storage.ErrNotFound) {
		return core.SharedGoalMember{}, err
	}
	return s.store.AddGoalMember(ctx, core.SharedGoalMember{GoalID: goal.ID, UserID: userID})
}

// InviteMember enrolls a user directly, without a share code. Only the
// creator may invite.
func (s *GoalService) InviteMember(ctx context.Context, goalID, actorID, userID int64) (core.SharedGoalMember, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return core.SharedGoalMember{}, err
	}
	if goal.CreatorID != actorID {
		return core.SharedGoalMember{}, core.ErrPermissionDenied
	}
	if goal.Status != core.GoalActive {
		return core.SharedGoalMember{}, core.ErrGoalNotActive
	}
	if _, err := s.store.GetGoalMember(ctx, goalID, userID); err == nil {
		return core.SharedGoalMember{}, core.ErrPermissionDenied
	} else if !errors.Is(err, storage.ErrNotFound) {
		return core.SharedGoalMember{}, err
	}
	return s.store.AddGoalMember(ctx, core.SharedGoalMember{GoalID: goalID, UserID: userID})
}

// Contribute adds money to the goal. The contribution record, the goal
// total, the member total and the linked account debit run as one saga:
// the goal saves money out of the linked account, so a balance that
// cannot cover the amount fails the last step and rolls the earlier
// writes back. A goal without a linked account tracks the amount only;
// no account balance moves.
func (s *GoalService) Contribute(ctx context.Context, goalID, userID int64, amount core.Money, note string) (core.GoalContribution, error) {
	if err := amount.Validate(); err != nil {
		return core.GoalContribution{}, err
	}
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return core.GoalContribution{}, err
	}
	if goal.Status != core.GoalActive {
		return core.GoalContribution{}, core.ErrGoalNotActive
	}
	if _, err := s.store.GetGoalMember(ctx, goalID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.GoalContribution{}, core.ErrPermissionDenied
		}
		return core.GoalContribution{}, err
	}

	var contribution core.GoalContribution
	saga := NewSaga("goal.contribute").
		AddStep(Step{
			Name: "record contribution",
			Run: func(ctx context.Context) error {
				var err error
				contribution, err = s.store.CreateContribution(ctx, core.GoalContribution{
					GoalID: goalID,
					UserID: userID,
					Amount: amount,
					Note:   note,
				})
				return err
			},
			Compensate: func(ctx context.Context) error {
				return s.store.DeleteContribution(ctx, contribution.ID)
			},
		}).
		AddStep(Step{
			Name: "raise goal total",
			Run: func(ctx context.Context) error {
				return s.store.AddToGoalCurrent(ctx, goalID, amount.Satang)
			},
			Compensate: func(ctx context.Context) error {
				return s.store.AddToGoalCurrent(ctx, goalID, -amount.Satang)
			},
		}).
		AddStep(Step{
			Name: "raise member total",
			Run: func(ctx context.Context) error {
				return s.store.AddToMemberContribution(ctx, goalID, userID, amount.Satang)
			},
			Compensate: func(ctx context.Context) error {
				return s.store.AddToMemberContribution(ctx, goalID, userID, -amount.Satang)
			},
		})
	if goal.LinkedAccountID != nil {
		linked := *goal.LinkedAccountID
		saga.AddStep(Step{
			Name: "debit linked account",
			Run: func(ctx context.Context) error {
				account, err := s.store.GetAccount(ctx, linked)
				if err != nil {
					return err
				}
				if !account.CanWithdraw(amount) {
					return core.ErrInsufficientBalance
				}
				return s.store.AdjustBalance(ctx, linked, -amount.Satang)
			},
			Compensate: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, linked, amount.Satang)
			},
		})
	}

	if err := saga.Execute(ctx); err != nil {
		return core.GoalContribution{}, err
	}

	s.publish(ctx, amqp.NewActivityEvent(amqp.EventContribution, userID, goalID, amount.Satang))
	s.completeIfReached(ctx, goalID)

	return contribution, nil
}

// CancelGoal stops further contributions. Accumulated money stays
// where it is.
func (s *GoalService) CancelGoal(ctx context.Context, goalID, actorID int64) error {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if goal.CreatorID != actorID {
		return core.ErrPermissionDenied
	}
	if goal.Status != core.GoalActive {
		return core.ErrGoalNotActive
	}
	return s.store.SetGoalStatus(ctx, goalID, core.GoalCancelled)
}

// DeleteGoal removes the goal. Money saved out of a linked account is
// refunded back to it, so the account ends where it started.
func (s *GoalService) DeleteGoal(ctx context.Context, goalID, actorID int64) error {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if goal.CreatorID != actorID {
		return core.ErrPermissionDenied
	}

	saga := NewSaga("goal.delete")
	if goal.LinkedAccountID != nil && goal.CurrentAmount.Satang > 0 {
		linked := *goal.LinkedAccountID
		amount := goal.CurrentAmount.Satang
		saga.AddStep(Step{
			Name: "refund accumulated amount",
			Run: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, linked, amount)
			},
			Compensate: func(ctx context.Context) error {
				return s.store.AdjustBalance(ctx, linked, -amount)
			},
		})
	}
	saga.AddStep(Step{
		Name: "delete goal",
		Run: func(ctx context.Context) error {
			return s.store.DeleteGoal(ctx, goalID)
		},
	})

	return saga.Execute(ctx)
}

// completeIfReached flips a goal to completed once contributions meet
// the target. The sweep worker repeats this check in case the process
// dies in between.
func (s *GoalService) completeIfReached(ctx context.Context, goalID int64) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to re-read goal after contribution",
			"goal_id", goalID,
			"error", err)
		return
	}
	if goal.Status != core.GoalActive || !goal.Reached() {
		return
	}
	if err := s.store.SetGoalStatus(ctx, goalID, core.GoalCompleted); err != nil {
		slog.WarnContext(ctx, "Failed to complete reached goal",
			"goal_id", goalID,
			"error", err)
		return
	}
	s.publish(ctx, amqp.NewActivityEvent(amqp.EventGoalCompleted, goal.CreatorID, goalID, goal.CurrentAmount.Satang))
}

func (s *GoalService) publish(ctx context.Context, ev *amqp.ActivityEvent) {
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
