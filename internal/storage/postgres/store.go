package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	interfaces "github.com/sheikh-saqib/bank-atm-ledger/internal/interfaces"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
)

// Schema creates the audit table when it does not exist yet.
const Schema = `CREATE TABLE IF NOT EXISTS audit_transactions (
	id             TEXT PRIMARY KEY,
	seq            BIGINT NOT NULL UNIQUE,
	account_number TEXT NOT NULL,
	type           TEXT NOT NULL,
	amount         NUMERIC(20, 8) NOT NULL,
	instrument     TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_transactions_account_seq ON audit_transactions (account_number, seq);`

const uniqueViolation = "23505"

// ErrDuplicateEntry is returned when an entry id or sequence is already stored.
var ErrDuplicateEntry = errors.New("duplicate audit entry")

// PostgresAuditStore mirrors the audit log into a Postgres table.
type PostgresAuditStore struct {
	db *sql.DB
}

func NewPostgresAuditStore(db *sql.DB) *PostgresAuditStore {
	return &PostgresAuditStore{
		db: db,
	}
}

func (p *PostgresAuditStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

func (p *PostgresAuditStore) SaveEntry(ctx context.Context, entry models.Transaction) error {
	const query = `INSERT INTO audit_transactions (id, seq, account_number, type, amount, instrument, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := p.db.ExecContext(ctx, query,
		entry.ID,
		int64(entry.Sequence),
		entry.AccountNumber,
		string(entry.Type),
		entry.Amount,
		string(entry.Instrument),
		entry.Timestamp,
	)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("save audit entry %s: %w", entry.ID, ErrDuplicateEntry)
		}
		return fmt.Errorf("save audit entry %s: %w", entry.ID, err)
	}
	return nil
}

func (p *PostgresAuditStore) GetEntries(ctx context.Context) ([]models.Transaction, error) {
	const query = `SELECT id, seq, account_number, type, amount, instrument, created_at
	FROM audit_transactions ORDER BY seq`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (p *PostgresAuditStore) GetEntriesByAccount(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	const query = `SELECT id, seq, account_number, type, amount, instrument, created_at
	FROM audit_transactions
	WHERE account_number = $1
	ORDER BY seq`

	rows, err := p.db.QueryContext(ctx, query, accountNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (p *PostgresAuditStore) Reset(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `TRUNCATE audit_transactions`)
	return err
}

func scanEntries(rows *sql.Rows) ([]models.Transaction, error) {
	entries := make([]models.Transaction, 0)

	for rows.Next() {
		var (
			entry      models.Transaction
			seq        int64
			txType     string
			instrument string
		)
		err := rows.Scan(
			&entry.ID,
			&seq,
			&entry.AccountNumber,
			&txType,
			&entry.Amount,
			&instrument,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		entry.Sequence = uint64(seq)
		entry.Type = models.TransactionType(txType)
		entry.Instrument = models.Instrument(instrument)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

var _ interfaces.AuditStore = (*PostgresAuditStore)(nil)
