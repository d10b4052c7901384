package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"finshare/internal/amqp"
	"finshare/internal/core"
	"finshare/internal/services"
	"finshare/internal/storage"
)

// Sweeper periodically settles bills whose members are all paid and
// completes goals that reached their target. It is the safety net for
// the inline checks: if the process dies between the last payment and
// the settlement write, the sweep catches up.
type Sweeper struct {
	storage *storage.SQLiteRepository
	events  services.Publisher
}

func NewSweeper(storage *storage.SQLiteRepository, events services.Publisher) *Sweeper {
	return &Sweeper{storage: storage, events: events}
}

// Start runs the sweep on the given cron schedule until ctx is done.
func (s *Sweeper) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		s.Run(ctx)
	})
	if err != nil {
		return err
	}

	c.Start()
	slog.InfoContext(ctx, "Sweep scheduled", "schedule", schedule)

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}

// Run executes one sweep pass. Failures on individual rows are logged
// and skipped so one bad record never blocks the rest.
func (s *Sweeper) Run(ctx context.Context) {
	s.settleFinishedBills(ctx)
	s.completeReachedGoals(ctx)
}

func (s *Sweeper) settleFinishedBills(ctx context.Context) {
	bills, err := s.storage.ListActiveBills(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Sweep failed to list active bills", "error", err)
		return
	}

	settled := 0
	for _, bill := range bills {
		members, err := s.storage.ListBillMembers(ctx, bill.ID)
		if err != nil {
			slog.WarnContext(ctx, "Sweep failed to list bill members", "bill_id", bill.ID, "error", err)
			continue
		}
		if !core.AllPaid(members) {
			continue
		}
		if err := s.storage.SettleBill(ctx, bill.ID, time.Now().UTC()); err != nil {
			slog.WarnContext(ctx, "Sweep failed to settle bill", "bill_id", bill.ID, "error", err)
			continue
		}
		settled++
		s.publish(ctx, amqp.NewActivityEvent(amqp.EventBillSettled, bill.OwnerID, bill.ID, bill.Total.Satang))
	}

	if settled > 0 {
		slog.InfoContext(ctx, "Sweep settled bills", "count", settled)
	}
}

func (s *Sweeper) completeReachedGoals(ctx context.Context) {
	goals, err := s.storage.ListReachedActiveGoals(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Sweep failed to list reached goals", "error", err)
		return
	}

	completed := 0
	for _, goal := range goals {
		if err := s.storage.SetGoalStatus(ctx, goal.ID, core.GoalCompleted); err != nil {
			slog.WarnContext(ctx, "Sweep failed to complete goal", "goal_id", goal.ID, "error", err)
			continue
		}
		completed++
		s.publish(ctx, amqp.NewActivityEvent(amqp.EventGoalCompleted, goal.CreatorID, goal.ID, goal.CurrentAmount.Satang))
	}

	if completed > 0 {
		slog.InfoContext(ctx, "Sweep completed goals", "count", completed)
	}
}

func (s *Sweeper) publish(ctx context.Context, ev *amqp.ActivityEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishActivity(ctx, ev); err != nil {
		slog.WarnContext(ctx, "Sweep failed to publish event",
			"event_id", ev.EventID,
			"kind", ev.Kind,
			"error", err)
	}
}
