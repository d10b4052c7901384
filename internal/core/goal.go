package core

import (
	"errors"
	"strings"
	"time"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCancelled GoalStatus = "cancelled"
)

type (
	GoalStatus string

	// SharedGoal is a collaborative savings target. CurrentAmount is the
	// sum of all member contributions. When a linked account is set,
	// contributions are deposited there and refunded on deletion.
	SharedGoal struct {
		ID              int64
		CreatorID       int64
		Name            string
		TargetAmount    Money
		CurrentAmount   Money
		TargetDate      time.Time
		LinkedAccountID *int64
		ShareCode       string
		Status          GoalStatus
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	// SharedGoalMember tracks one user's cumulative contribution to a goal.
	SharedGoalMember struct {
		ID          int64
		GoalID      int64
		UserID      int64
		Contributed Money
		JoinedAt    time.Time
	}

	// GoalContribution is an immutable record of one deposit into a goal.
	GoalContribution struct {
		ID        int64
		GoalID    int64
		UserID    int64
		Amount    Money
		Note      string
		CreatedAt time.Time
	}
)

var (
	ErrGoalNotActive    = errors.New("goal is not active")
	ErrInvalidGoalState = errors.New("invalid goal status")
)

func (s GoalStatus) Valid() bool {
	switch s {
	case GoalActive, GoalCompleted, GoalCancelled:
		return true
	}
	return false
}

func (g SharedGoal) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrEmptyName
	}
	if len(g.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if g.CurrentAmount.Satang < 0 {
		return ErrInvalidAmount
	}
	if !g.Status.Valid() {
		return ErrInvalidGoalState
	}
	return nil
}

// Reached reports whether contributions have met the target.
func (g SharedGoal) Reached() bool {
	return g.CurrentAmount.Satang >= g.TargetAmount.Satang
}

// PercentFunded returns how much of the target has been contributed,
// capped at 100.
func (g SharedGoal) PercentFunded() float64 {
	if g.TargetAmount.Satang <= 0 {
		return 0
	}
	pct := float64(g.CurrentAmount.Satang) / float64(g.TargetAmount.Satang) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

func (c GoalContribution) Validate() error {
	return c.Amount.Validate()
}
