package amqp

import (
	"encoding/json"
	"time"
)

// Entities named by LedgerChangedMessage.
const (
	EntityTransaction = "transaction"
	EntityRecurring   = "recurring"
	EntityBudget      = "budget"
	EntityGoal        = "goal"
	EntityCategory    = "category"
	EntityLedger      = "ledger"
)

// LedgerChangedMessage tells consumers that the ledger was modified. It only
// carries the reference; consumers read the current state from the store.
type LedgerChangedMessage struct {
	Entity    string    `json:"entity"`
	Operation string    `json:"operation"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(entity, operation, id string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Entity:    entity,
		Operation: operation,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// BudgetAlertMessage reports a category whose spending went over its limit
// in the given month.
type BudgetAlertMessage struct {
	Month      string    `json:"month"`
	Category   string    `json:"category"`
	LimitCents int64     `json:"limit_cents"`
	SpentCents int64     `json:"spent_cents"`
	OverCents  int64     `json:"over_cents"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(month, category string, limitCents, spentCents int64) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		Month:      month,
		Category:   category,
		LimitCents: limitCents,
		SpentCents: spentCents,
		OverCents:  spentCents - limitCents,
		Timestamp:  time.Now(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
