package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const TransactionRecordedTopic = "transaction_recorded"

// TransactionRecorded is published after an audit entry has been appended.
type TransactionRecorded struct {
	TransactionID string          `json:"transaction_id"`
	Sequence      uint64          `json:"sequence"`
	AccountNumber string          `json:"account_number"`
	Type          string          `json:"type"`
	Instrument    string          `json:"instrument"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
