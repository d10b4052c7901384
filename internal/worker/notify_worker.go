package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finshare/internal/amqp"
	"finshare/internal/core"
	"finshare/internal/storage"
)

// NotifyWorker turns activity events into persisted notifications for
// every affected user. Redelivered events are deduplicated per user by
// the event id.
type NotifyWorker struct {
	storage *storage.SQLiteRepository
}

func NewNotifyWorker(storage *storage.SQLiteRepository) *NotifyWorker {
	return &NotifyWorker{storage: storage}
}

// HandleActivityEvent processes a single event from the queue.
func (w *NotifyWorker) HandleActivityEvent(ctx context.Context, ev *amqp.ActivityEvent) error {
	recipients, title, body, err := w.expand(ctx, ev)
	if err != nil {
		return fmt.Errorf("expand event %s: %w", ev.EventID, err)
	}
	if len(recipients) == 0 {
		slog.DebugContext(ctx, "Event has no recipients", "event_id", ev.EventID, "kind", ev.Kind)
		return nil
	}

	for _, userID := range recipients {
		_, err := w.storage.CreateNotification(ctx, storage.Notification{
			UserID:  userID,
			EventID: ev.EventID,
			Title:   title,
			Body:    body,
		})
		if err != nil {
			return fmt.Errorf("store notification for user %d: %w", userID, err)
		}
	}

	slog.InfoContext(ctx, "Notifications stored",
		"event_id", ev.EventID,
		"kind", ev.Kind,
		"recipients", len(recipients))
	return nil
}

// expand resolves who should hear about the event and what it says.
// Shared surfaces notify everyone involved; personal ones only the
// actor.
func (w *NotifyWorker) expand(ctx context.Context, ev *amqp.ActivityEvent) (recipients []int64, title, body string, err error) {
	amount := core.Money{Satang: ev.AmountSatang}

	switch ev.Kind {
	case amqp.EventDeposit, amqp.EventWithdraw, amqp.EventTransfer:
		recipients, err = w.accountAudience(ctx, ev.RefID)
		if err != nil {
			return nil, "", "", err
		}
		switch ev.Kind {
		case amqp.EventDeposit:
			title = "Deposit received"
			body = fmt.Sprintf("%s was deposited", amount)
		case amqp.EventWithdraw:
			title = "Withdrawal made"
			body = fmt.Sprintf("%s was withdrawn", amount)
		default:
			title = "Transfer sent"
			body = fmt.Sprintf("%s was transferred out", amount)
		}

	case amqp.EventContribution, amqp.EventGoalCompleted:
		members, err := w.storage.ListGoalMembers(ctx, ev.RefID)
		if err != nil {
			return nil, "", "", err
		}
		for _, m := range members {
			recipients = append(recipients, m.UserID)
		}
		if ev.Kind == amqp.EventContribution {
			title = "New goal contribution"
			body = fmt.Sprintf("%s was added to the goal", amount)
		} else {
			title = "Goal reached"
			body = "The savings goal hit its target"
		}

	case amqp.EventBillSettled:
		bill, err := w.storage.GetBill(ctx, ev.RefID)
		if err != nil {
			return nil, "", "", err
		}
		members, err := w.storage.ListBillMembers(ctx, ev.RefID)
		if err != nil {
			return nil, "", "", err
		}
		recipients = append(recipients, bill.OwnerID)
		for _, m := range members {
			if m.UserID != 0 && m.UserID != bill.OwnerID {
				recipients = append(recipients, m.UserID)
			}
		}
		title = "Bill settled"
		body = fmt.Sprintf("Everyone paid their share of %s", amount)

	case amqp.EventBudgetOver:
		recipients = []int64{ev.UserID}
		title = "Budget exceeded"
		body = fmt.Sprintf("Spending reached %s, over the budget limit", amount)

	default:
		slog.WarnContext(ctx, "Unknown event kind", "kind", ev.Kind, "event_id", ev.EventID)
	}

	return recipients, title, body, nil
}

func (w *NotifyWorker) accountAudience(ctx context.Context, accountID int64) ([]int64, error) {
	account, err := w.storage.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	recipients := []int64{account.OwnerID}
	members, err := w.storage.ListAccountMembers(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.UserID != account.OwnerID {
			recipients = append(recipients, m.UserID)
		}
	}
	return recipients, nil
}
