// Package audit keeps the append-only record of every committed deposit and
// withdrawal.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/bank-atm-ledger/internal/interfaces"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
)

// Log stamps entries with a sequence number and a non-decreasing timestamp
// and appends them to its store. Appends are serialized so store order,
// sequence order and timestamp order agree.
type Log struct {
	store interfaces.AuditStore
	now   func() time.Time

	mu   sync.Mutex
	seq  uint64
	last time.Time
}

func NewLog(store interfaces.AuditStore) *Log {
	return &Log{store: store, now: time.Now}
}

// Record appends an entry and returns it.
func (l *Log) Record(ctx context.Context, accountNumber string, txType models.TransactionType, amount decimal.Decimal, instrument models.Instrument) (models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	if ts.Before(l.last) {
		ts = l.last
	}

	entry := models.Transaction{
		ID:            uuid.New().String(),
		Sequence:      l.seq + 1,
		AccountNumber: accountNumber,
		Type:          txType,
		Amount:        amount,
		Instrument:    instrument,
		Timestamp:     ts,
	}
	if err := l.store.SaveEntry(ctx, entry); err != nil {
		return models.Transaction{}, fmt.Errorf("record %s for account %s: %w", txType, accountNumber, err)
	}

	l.seq = entry.Sequence
	l.last = ts
	return entry, nil
}

// TransactionsFor returns the entries of one account in append order.
func (l *Log) TransactionsFor(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	entries, err := l.store.GetEntriesByAccount(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("load transactions for account %s: %w", accountNumber, err)
	}
	return entries, nil
}

// All returns every entry in append order.
func (l *Log) All(ctx context.Context) ([]models.Transaction, error) {
	return l.store.GetEntries(ctx)
}

// Resume continues numbering after the entries already in the store, so a
// log backed by a persistent store can be reopened.
func (l *Log) Resume(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.store.GetEntries(ctx)
	if err != nil {
		return fmt.Errorf("resume audit log: %w", err)
	}
	for _, e := range entries {
		if e.Sequence > l.seq {
			l.seq = e.Sequence
		}
		if e.Timestamp.After(l.last) {
			l.last = e.Timestamp
		}
	}
	return nil
}

// Reset clears the log. Meant for isolating test scenarios.
func (l *Log) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset audit log: %w", err)
	}
	l.seq = 0
	l.last = time.Time{}
	return nil
}
