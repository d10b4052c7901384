package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventDeposit       EventKind = "deposit"
	EventWithdraw      EventKind = "withdraw"
	EventTransfer      EventKind = "transfer"
	EventContribution  EventKind = "contribution"
	EventBillSettled   EventKind = "bill_settled"
	EventGoalCompleted EventKind = "goal_completed"
	EventBudgetOver    EventKind = "budget_over"
)

// ActivityEvent is the message published after a money-moving operation
// completes. The notification worker fans it out to the affected users.
// EventID makes redeliveries idempotent on the consumer side.
type ActivityEvent struct {
	EventID      string    `json:"event_id"`
	Kind         EventKind `json:"kind"`
	UserID       int64     `json:"user_id"`
	RefID        int64     `json:"ref_id"`
	AmountSatang int64     `json:"amount_satang"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewActivityEvent creates an event with a fresh id. RefID is the
// account, goal or bill the event is about, depending on Kind.
func NewActivityEvent(kind EventKind, userID, refID, amountSatang int64) *ActivityEvent {
	return &ActivityEvent{
		EventID:      uuid.NewString(),
		Kind:         kind,
		UserID:       userID,
		RefID:        refID,
		AmountSatang: amountSatang,
		Timestamp:    time.Now(),
	}
}

func (e *ActivityEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ActivityEventFromJSON(data []byte) (*ActivityEvent, error) {
	var ev ActivityEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
