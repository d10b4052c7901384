package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finshare/internal/amqp"
	"finshare/internal/core"
)

func participants() []BillParticipant {
	return []BillParticipant{
		{UserID: 1, Name: "Owner"},
		{UserID: 2, Name: "Nok"},
		{UserID: 0, Name: "Guest"},
	}
}

func TestCreateBillSplitsEvenly(t *testing.T) {
	repo := newRepo(t)
	svc := NewBillService(repo, nil)

	bill, members, err := svc.CreateBill(context.Background(), 1, "Dinner", core.Money{Satang: 100}, participants())
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, core.BillActive, bill.Status)

	var sum int64
	for _, m := range members {
		sum += m.Share.Satang
		assert.False(t, m.Paid)
	}
	assert.Equal(t, int64(100), sum, "shares must sum back to the total")
	// 100 satang across 3: the first member absorbs the remainder
	assert.Equal(t, int64(34), members[0].Share.Satang)
	assert.Equal(t, int64(33), members[1].Share.Satang)
	assert.Equal(t, int64(33), members[2].Share.Satang)
}

func TestMarkPaidSettlesWhenAllPaid(t *testing.T) {
	repo := newRepo(t)
	pub := &capturePublisher{}
	svc := NewBillService(repo, pub)
	ctx := context.Background()

	bill, members, err := svc.CreateBill(ctx, 1, "Rent", core.Money{Satang: 900_000}, participants())
	require.NoError(t, err)

	for i, m := range members {
		require.NoError(t, svc.MarkPaid(ctx, bill.ID, m.ID, 1, true))

		got, _, err := svc.GetBill(ctx, bill.ID)
		require.NoError(t, err)
		if i < len(members)-1 {
			assert.Equal(t, core.BillActive, got.Status)
		} else {
			assert.Equal(t, core.BillSettled, got.Status)
			assert.NotNil(t, got.SettledAt)
		}
	}

	assert.Contains(t, pub.kinds(), amqp.EventBillSettled)

	// Settled is terminal: nothing can be toggled back
	err = svc.MarkPaid(ctx, bill.ID, members[0].ID, 1, false)
	require.ErrorIs(t, err, core.ErrBillSettled)
}

func TestMarkPaidAuthorization(t *testing.T) {
	repo := newRepo(t)
	svc := NewBillService(repo, nil)
	ctx := context.Background()

	bill, members, err := svc.CreateBill(ctx, 1, "Taxi", core.Money{Satang: 30_000}, participants())
	require.NoError(t, err)

	nok := members[1]   // user 2
	guest := members[2] // no user account

	// A member may toggle their own flag
	require.NoError(t, svc.MarkPaid(ctx, bill.ID, nok.ID, 2, true))

	// But not someone else's
	err = svc.MarkPaid(ctx, bill.ID, guest.ID, 2, true)
	require.ErrorIs(t, err, core.ErrPermissionDenied)

	// The owner may toggle anyone, including guests
	require.NoError(t, svc.MarkPaid(ctx, bill.ID, guest.ID, 1, true))

	// A stranger may toggle nothing
	err = svc.MarkPaid(ctx, bill.ID, members[0].ID, 99, true)
	require.ErrorIs(t, err, core.ErrPermissionDenied)
}

func TestMarkPaidUnpayKeepsBillActive(t *testing.T) {
	repo := newRepo(t)
	svc := NewBillService(repo, nil)
	ctx := context.Background()

	bill, members, err := svc.CreateBill(ctx, 1, "Groceries", core.Money{Satang: 60_000}, participants()[:2])
	require.NoError(t, err)

	require.NoError(t, svc.MarkPaid(ctx, bill.ID, members[0].ID, 1, true))
	require.NoError(t, svc.MarkPaid(ctx, bill.ID, members[0].ID, 1, false))
	require.NoError(t, svc.MarkPaid(ctx, bill.ID, members[1].ID, 1, true))

	got, _, err := svc.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, core.BillActive, got.Status, "one unpaid member keeps the bill open")
}

func TestCreateBillWithoutParticipants(t *testing.T) {
	repo := newRepo(t)
	svc := NewBillService(repo, nil)

	_, _, err := svc.CreateBill(context.Background(), 1, "Empty", core.Money{Satang: 100}, nil)
	require.ErrorIs(t, err, core.ErrNoBillMember)
}

func TestDeleteBillOnlyByOwner(t *testing.T) {
	repo := newRepo(t)
	svc := NewBillService(repo, nil)
	ctx := context.Background()

	bill, _, err := svc.CreateBill(ctx, 1, "Old bill", core.Money{Satang: 100}, participants())
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteBill(ctx, bill.ID, 2), core.ErrPermissionDenied)
	require.NoError(t, svc.DeleteBill(ctx, bill.ID, 1))
}
