package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Actions carried by a TransactionEventMessage.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEventMessage is a lightweight notification that a transaction
// changed. It carries only the id and action; consumers fetch the current row
// from storage themselves.
type TransactionEventMessage struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEventMessage creates an event for the given id and action.
func NewTransactionEventMessage(id int64, action string) *TransactionEventMessage {
	return &TransactionEventMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// Validate checks the message carries a known action and a usable id.
func (m *TransactionEventMessage) Validate() error {
	switch m.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", m.Action)
	}
	if m.ID <= 0 {
		return fmt.Errorf("invalid transaction id %d", m.ID)
	}
	return nil
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON decodes a message from JSON bytes.
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
