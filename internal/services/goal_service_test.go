package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finshare/internal/amqp"
	"finshare/internal/core"
	"finshare/internal/storage"
)

func TestContributeWithoutLinkedAccount(t *testing.T) {
	repo := newRepo(t)
	svc := NewGoalService(repo, nil)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, core.SharedGoal{
		CreatorID:    1,
		Name:         "Phuket trip",
		TargetAmount: core.Money{Satang: 2_000_000},
	})
	require.NoError(t, err)
	require.NotEmpty(t, goal.ShareCode)

	_, err = svc.Contribute(ctx, goal.ID, 1, core.Money{Satang: 100_000}, "first") // ฿1,000
	require.NoError(t, err)

	got, err := repo.GetGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), got.CurrentAmount.Satang)
	assert.Equal(t, core.GoalActive, got.Status)

	member, err := repo.GetGoalMember(ctx, goal.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), member.Contributed.Satang)
}

func TestContributeWithLinkedAccountDebitsIt(t *testing.T) {
	repo := newRepo(t)
	svc := NewGoalService(repo, nil)
	ctx := context.Background()

	account := newAccount(t, repo, 1, 500_000)
	goal, err := svc.CreateGoal(ctx, core.SharedGoal{
		CreatorID:       1,
		Name:            "New laptop",
		TargetAmount:    core.Money{Satang: 3_000_000},
		LinkedAccountID: &account.ID,
	})
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, goal.ID, 1, core.Money{Satang: 200_000}, "")
	require.NoError(t, err)

	// The goal saves money out of the account
	gotAccount, err := repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300_000), gotAccount.Balance.Satang)

	gotGoal, err := repo.GetGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200_000), gotGoal.CurrentAmount.Satang)
}

func TestContributeBeyondLinkedBalanceRollsBack(t *testing.T) {
	repo := newRepo(t)
	svc := NewGoalService(repo, nil)
	ctx := context.Background()

	account := newAccount(t, repo, 1, 5_000)
	goal, err := svc.CreateGoal(ctx, core.SharedGoal{
		CreatorID:       1,
		Name:            "Out of reach",
		TargetAmount:    core.Money{Satang: 1_000_000},
		LinkedAccountID: &account.ID,
	})
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, goal.ID, 1, core.Money{Satang: 100_000}, "")
	require.ErrorIs(t, err, core.ErrInsufficientBalance)

	gotAccount, err := repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), gotAccount.Balance.Satang, "balance untouched")

	gotGoal, err := repo.GetGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gotGoal.CurrentAmount.Satang, "goal total rolled back")

	member, err := repo.GetGoalMember(ctx, goal.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), member.Contributed.Satang, "member total rolled back")

	contributions, err := repo.ListContributions(ctx, goal.ID)
	require.NoError(t, err)
	assert.Empty(t, contributions, "contribution record rolled back")
}

func TestContributeCompletesReachedGoal(t *testing.T) {
	repo := newRepo(t)
	pub := &capturePublisher{}
	svc := NewGoalService(repo, pub)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, core.SharedGoal{
		CreatorID:    1,
		Name:         "Concert tickets",
		TargetAmount: core.Money{Satang: 150_000},
	})
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, goal.ID, 1, core.Money{Satang: 150_000}, "")
	require.NoError(t, err)

	got, err := repo.GetGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, core.GoalCompleted, got.Status)
	assert.Contains(t, pub.kinds(), amqp.EventGoalCompleted)

	// Completed goals reject further contributions
	_, err = svc.Contribute(ctx, goal.ID, 1, core.Money{Satang: 1_000}, "")
	require.ErrorIs(t, err, core.ErrGoalNotActive)
}

func TestJoinByShareCodeAndContribute(t *testing.T) {
	repo := newRepo(t)
	svc := NewGoalService(repo, nil)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, core.SharedGoal{
		CreatorID:    1,
		Name:         "Shared fund",
		TargetAmount: core.Money{Satang: 1_000_000},
	})
	require.NoError(t, err)

	_, err = svc.JoinByShareCode(ctx, goal.ShareCode, 2)
	require.NoError(t, err)

	// Joining twice is rejected
	_, err = svc.JoinByShareCode(ctx, goal.ShareCode, 2)
	require.Error(t, err)

	_, err = svc.Contribute(ctx, goal.ID, 2, core.Money{Satang: 50_000}, "")
	require.NoError(t, err)

	member, err := repo.GetGoalMember(ctx, goal.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), member.Contributed.Satang)
}

func TestInviteMemberOnlyByCreator(t *testing.T) {
	repo := newRepo(t)
	svc := NewGoalService(repo, nil)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, core.SharedGoal{
		CreatorID:    1,
		Name:         "Invite only",
		TargetAmount: core.Money{Satang: 500_000},
	})
	require.NoError(t, err)

	_, err = svc.InviteMember(ctx, goal.ID, 2, 3)
	require.ErrorIs(t, err, core.ErrPermissionDenied)

	member, err := svc.InviteMember(ctx, goal.ID, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), member.UserID)

	// Inviting the same user again is rejected
	_, err = svc.InviteMember(ctx, goal.ID, 1, 3)
	require.Error(t, err)

	_, err = svc.Contribute(ctx, goal.ID, 3, core.Money{Satang: 10_000}, "")
	require.NoError(t, err)
}

func TestContributeByNonMemberDenied(t *testing.T) {
	repo := newRepo(t)
	svc := NewGoalService(repo, nil)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, core.SharedGoal{
		CreatorID:    1,
		Name:         "Private goal",
		TargetAmount: core.Money{Satang: 100_000},
	})
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, goal.ID, 42, core.Money{Satang: 1_000}, "")
	require.ErrorIs(t, err, core.ErrPermissionDenied)
}

func TestDeleteGoalRefundsLinkedAccount(t *testing.T) {
	repo := newRepo(t)
	svc := NewGoalService(repo, nil)
	ctx := context.Background()

	account := newAccount(t, repo, 1, 100_000)
	goal, err := svc.CreateGoal(ctx, core.SharedGoal{
		CreatorID:       1,
		Name:            "Temporary",
		TargetAmount:    core.Money{Satang: 1_000_000},
		LinkedAccountID: &account.ID,
	})
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, goal.ID, 1, core.Money{Satang: 60_000}, "")
	require.NoError(t, err)

	drained, err := repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, int64(40_000), drained.Balance.Satang)

	require.NoError(t, svc.DeleteGoal(ctx, goal.ID, 1))

	gotAccount, err := repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), gotAccount.Balance.Satang, "deletion refunds the saved amount")

	_, err = repo.GetGoal(ctx, goal.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCancelGoalOnlyByCreator(t *testing.T) {
	repo := newRepo(t)
	svc := NewGoalService(repo, nil)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, core.SharedGoal{
		CreatorID:    1,
		Name:         "Cancel me",
		TargetAmount: core.Money{Satang: 100_000},
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.CancelGoal(ctx, goal.ID, 2), core.ErrPermissionDenied)
	require.NoError(t, svc.CancelGoal(ctx, goal.ID, 1))

	got, err := repo.GetGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, core.GoalCancelled, got.Status)
}
