package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType says which way money moved.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
)

// Instrument is the means by which a transaction was funded.
type Instrument string

const (
	InstrumentCash       Instrument = "CASH"
	InstrumentCheck      Instrument = "CHECK"
	InstrumentMoneyOrder Instrument = "MONEY_ORDER"
)

// Transaction is one immutable audit log record
type Transaction struct {
	ID            string          `json:"id"`             // unique entry id
	Sequence      uint64          `json:"sequence"`       // append order, process-wide
	AccountNumber string          `json:"account_number"` // account the entry belongs to
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"` // reference currency, always positive
	Instrument    Instrument      `json:"instrument"`
	Timestamp     time.Time       `json:"timestamp"`
}
