package core

import "time"

// EventKind names the mutation that produced a TransactionEvent.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// TransactionEvent records one successful mutation for auditing.
type TransactionEvent struct {
	Kind          EventKind `json:"kind"`
	TransactionID string    `json:"id"`
	Owner         string    `json:"owner"`
	OccurredAt    Timestamp `json:"timestamp"`
}

func NewTransactionEvent(kind EventKind, t Transaction, now time.Time) TransactionEvent {
	return TransactionEvent{
		Kind:          kind,
		TransactionID: t.ID,
		Owner:         t.Owner,
		OccurredAt:    NewTimestamp(now),
	}
}

func (k EventKind) IsValid() bool {
	switch k {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}
