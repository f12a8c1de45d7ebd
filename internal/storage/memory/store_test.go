package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
)

func entry(seq uint64, account string) models.Transaction {
	return models.Transaction{
		ID:            account + "-" + decimal.NewFromInt(int64(seq)).String(),
		Sequence:      seq,
		AccountNumber: account,
		Type:          models.TransactionDeposit,
		Amount:        decimal.NewFromInt(10),
		Instrument:    models.InstrumentCash,
	}
}

func TestEntriesByAccount(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAuditStore()

	_ = s.SaveEntry(ctx, entry(1, "a"))
	_ = s.SaveEntry(ctx, entry(2, "b"))
	_ = s.SaveEntry(ctx, entry(3, "a"))

	got, err := s.GetEntriesByAccount(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Sequence != 1 || got[1].Sequence != 3 {
		t.Fatalf("unexpected entries: %+v", got)
	}

	all, _ := s.GetEntries(ctx)
	if len(all) != 3 {
		t.Fatalf("len=%d want=3", len(all))
	}
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAuditStore()
	_ = s.SaveEntry(ctx, entry(1, "a"))

	all, _ := s.GetEntries(ctx)
	all[0].AccountNumber = "tampered"
	byAcc, _ := s.GetEntriesByAccount(ctx, "a")
	byAcc[0].Amount = decimal.NewFromInt(-1)

	again, _ := s.GetEntriesByAccount(ctx, "a")
	if again[0].AccountNumber != "a" || !again[0].Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("internal state modified: %+v", again[0])
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAuditStore()
	_ = s.SaveEntry(ctx, entry(1, "a"))

	if err := s.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.GetEntriesByAccount(ctx, "a"); len(got) != 0 {
		t.Fatalf("len=%d after reset", len(got))
	}
}
