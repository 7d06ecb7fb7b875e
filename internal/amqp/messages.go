package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// TransactionEvent is the message published whenever a transaction is
// recorded, whether by hand or by the recurring materializer. Consumers
// get enough to evaluate budgets without a storage round-trip.
type TransactionEvent struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Kind          string    `json:"kind"`
	Category      string    `json:"category"`
	AmountCents   int64     `json:"amount_cents"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Kind:          string(t.Kind),
		Category:      t.Category,
		AmountCents:   t.Amount.Cents,
		Date:          t.Date.UTC().Format("2006-01-02"),
		Timestamp:     time.Now(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
