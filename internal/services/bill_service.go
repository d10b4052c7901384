package services

import (
	"context"
	"log/slog"
	"time"

	"finshare/internal/amqp"
	"finshare/internal/core"
)

type BillStore interface {
	CreateBill(ctx context.Context, b core.Bill) (core.Bill, error)
	GetBill(ctx context.Context, id int64) (core.Bill, error)
	ListBillsForUser(ctx context.Context, userID int64) ([]core.Bill, error)
	SettleBill(ctx context.Context, id int64, settledAt time.Time) error
	DeleteBill(ctx context.Context, id int64) error

	AddBillMember(ctx context.Context, m core.BillMember) (core.BillMember, error)
	GetBillMember(ctx context.Context, id int64) (core.BillMember, error)
	ListBillMembers(ctx context.Context, billID int64) ([]core.BillMember, error)
	SetBillMemberPaid(ctx context.Context, id int64, paid bool, paidAt *time.Time) error
}

type BillService struct {
	store  BillStore
	events Publisher
}

func NewBillService(store BillStore, events Publisher) *BillService {
	return &BillService{store: store, events: events}
}

// BillParticipant names one person on a new bill. UserID is zero for
// people without an account.
type BillParticipant struct {
	UserID int64
	Name   string
}

// CreateBill splits the total evenly across the participants and
// creates the bill with its member rows in one saga.
func (s *BillService) CreateBill(ctx context.Context, ownerID int64, name string, total core.Money, participants []BillParticipant) (core.Bill, []core.BillMember, error) {
	bill := core.Bill{OwnerID: ownerID, Name: name, Total: total}
	if err := bill.Validate(); err != nil {
		return core.Bill{}, nil, err
	}
	shares, err := core.SplitEvenly(total, len(participants))
	if err != nil {
		return core.Bill{}, nil, err
	}

	var created core.Bill
	members := make([]core.BillMember, 0, len(participants))

	saga := NewSaga("bill.create").
		AddStep(Step{
			Name: "create bill",
			Run: func(ctx context.Context) error {
				var err error
				created, err = s.store.CreateBill(ctx, bill)
				return err
			},
			Compensate: func(ctx context.Context) error {
				return s.store.DeleteBill(ctx, created.ID)
			},
		})
	for i, p := range participants {
		member := core.BillMember{UserID: p.UserID, Name: p.Name, Share: shares[i]}
		saga.AddStep(Step{
			Name: "add member",
			Run: func(ctx context.Context) error {
				member.BillID = created.ID
				m, err := s.store.AddBillMember(ctx, member)
				if err != nil {
					return err
				}
				members = append(members, m)
				return nil
			},
			// Removed by the bill deletion cascade
		})
	}

	if err := saga.Execute(ctx); err != nil {
		return core.Bill{}, nil, err
	}
	return created, members, nil
}

func (s *BillService) GetBill(ctx context.Context, billID int64) (core.Bill, []core.BillMember, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return core.Bill{}, nil, err
	}
	members, err := s.store.ListBillMembers(ctx, billID)
	if err != nil {
		return core.Bill{}, nil, err
	}
	return bill, members, nil
}

func (s *BillService) ListBills(ctx context.Context, userID int64) ([]core.Bill, error) {
	return s.store.ListBillsForUser(ctx, userID)
}

// MarkPaid toggles a member's paid flag. Only the bill owner or the
// member themself may do it, and a settled bill rejects any change.
// When the toggle makes every member paid, the bill settles
// immediately and permanently.
func (s *BillService) MarkPaid(ctx context.Context, billID, memberID, actorID int64, paid bool) error {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return err
	}
	if bill.Status == core.BillSettled {
		return core.ErrBillSettled
	}
	member, err := s.store.GetBillMember(ctx, memberID)
	if err != nil {
		return err
	}
	if member.BillID != billID {
		return core.ErrPermissionDenied
	}
	if !bill.CanTogglePaid(actorID, member) {
		return core.ErrPermissionDenied
	}

	var paidAt *time.Time
	if paid {
		now := time.Now().UTC()
		paidAt = &now
	}
	if err := s.store.SetBillMemberPaid(ctx, memberID, paid, paidAt); err != nil {
		return err
	}

	if !paid {
		return nil
	}

	members, err := s.store.ListBillMembers(ctx, billID)
	if err != nil {
		return err
	}
	if !core.AllPaid(members) {
		return nil
	}

	if err := s.store.SettleBill(ctx, billID, time.Now().UTC()); err != nil {
		return err
	}
	s.publish(ctx, amqp.NewActivityEvent(amqp.EventBillSettled, bill.OwnerID, billID, bill.Total.Satang))
	return nil
}

func (s *BillService) DeleteBill(ctx context.Context, billID, actorID int64) error {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return err
	}
	if bill.OwnerID != actorID {
		return core.ErrPermissionDenied
	}
	return s.store.DeleteBill(ctx, billID)
}

func (s *BillService) publish(ctx context.Context, ev *amqp.ActivityEvent) {
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
