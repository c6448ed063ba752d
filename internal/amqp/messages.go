package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names the lifecycle change an ExpenseEvent reports.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// ExpenseEvent is a lightweight notification; consumers load the record
// from the store. BillURL is carried on deletes since the row is gone.
type ExpenseEvent struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	BillURL   string    `json:"bill_url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(id string, kind EventKind, billURL string) *ExpenseEvent {
	return &ExpenseEvent{
		ID:        id,
		Kind:      kind,
		BillURL:   billURL,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and checks an event body.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("event without id")
	}
	switch msg.Kind {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	return &msg, nil
}
