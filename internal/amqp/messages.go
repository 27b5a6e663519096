package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// TransactionEventMessage is the wire form of a core.TransactionEvent. The
// consumer only needs ids to write the audit row, so the record body is not
// included.
type TransactionEventMessage struct {
	Kind          core.EventKind `json:"kind"`
	TransactionID string         `json:"id"`
	Owner         string         `json:"owner"`
	Timestamp     time.Time      `json:"timestamp"`
}

func NewTransactionEventMessage(e core.TransactionEvent) *TransactionEventMessage {
	return &TransactionEventMessage{
		Kind:          e.Kind,
		TransactionID: e.TransactionID,
		Owner:         e.Owner,
		Timestamp:     e.OccurredAt.Time,
	}
}

func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Event converts the message back to the domain type.
func (m *TransactionEventMessage) Event() core.TransactionEvent {
	return core.TransactionEvent{
		Kind:          m.Kind,
		TransactionID: m.TransactionID,
		Owner:         m.Owner,
		OccurredAt:    core.NewTimestamp(m.Timestamp),
	}
}

// TransactionEventMessageFromJSON decodes and validates a message body.
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.IsValid() {
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	if msg.TransactionID == "" || msg.Owner == "" {
		return nil, fmt.Errorf("event missing id or owner")
	}
	return &msg, nil
}
