package interfaces

import (
	"context"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
)

// AuditStore is the append-only backing store of the audit log.
// GetEntriesByAccount must return entries in append (sequence) order.
type AuditStore interface {
	SaveEntry(ctx context.Context, entry models.Transaction) error
	GetEntriesByAccount(ctx context.Context, accountNumber string) ([]models.Transaction, error)
	GetEntries(ctx context.Context) ([]models.Transaction, error)
	Reset(ctx context.Context) error
}
