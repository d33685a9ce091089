package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the ledger stream.
const (
	KindIncome  = "income"
	KindExpense = "expense"
	KindDebt    = "debt"
	KindPayment = "debt_payment"
)

// LedgerEvent is a compact notification that a ledger row was written.
// Consumers fetch whatever they need from the store; the event only carries
// identity.
type LedgerEvent struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind string, id, userID int64) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
