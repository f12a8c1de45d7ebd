// Package account implements the bank's account variants and the check
// instrument drawn against them.
//
// All balances are held in the reference currency. Checking and Savings share
// one state struct and one set of validation functions; the variants differ
// only in their deposit rules and whether they accept checks.
package account

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
)

// Kind names an account variant.
type Kind string

const (
	KindChecking Kind = "CHECKING"
	KindSavings  Kind = "SAVINGS"
)

// Account is the contract shared by every account variant. The set of
// implementations is closed: only this package can satisfy it.
type Account interface {
	Number() string
	Owners() []*models.Customer
	Balance() decimal.Decimal
	Kind() Kind
	IsClosed() bool
	AcceptsChecks() bool

	Deposit(amount decimal.Decimal) error
	Withdraw(amount decimal.Decimal) error
	Close() error

	// restore reverses a debit taken by this package. It skips variant rules.
	restore(amount decimal.Decimal)
	// reverse takes back a credit made by this package. It skips variant rules.
	reverse(amount decimal.Decimal)
}

// ReverseDeposit takes back a deposit that already committed, e.g. when its
// audit entry could not be written. The caller must hold the account's lock
// since the deposit.
func ReverseDeposit(acc Account, amount decimal.Decimal) { acc.reverse(amount) }

// ReverseWithdrawal puts back a withdrawal that already committed.
func ReverseWithdrawal(acc Account, amount decimal.Decimal) { acc.restore(amount) }

// state is the balance and lifecycle shared by all variants.
type state struct {
	number string
	owners []*models.Customer

	mu      sync.Mutex
	balance decimal.Decimal
	closed  bool
}

func newState(number string, owners []*models.Customer, opening decimal.Decimal) (*state, error) {
	if number == "" {
		return nil, fmt.Errorf("account number is required: %w", models.ErrInvalidArgument)
	}
	if len(owners) == 0 {
		return nil, fmt.Errorf("account %s needs at least one owner: %w", number, models.ErrInvalidArgument)
	}
	if opening.IsNegative() {
		return nil, fmt.Errorf("opening balance cannot be negative: %w", models.ErrInvalidArgument)
	}

	// dedupe by identity, keep first-seen order
	seen := make(map[string]struct{}, len(owners))
	own := make([]*models.Customer, 0, len(owners))
	for _, o := range owners {
		if o == nil {
			return nil, fmt.Errorf("account %s has a nil owner: %w", number, models.ErrInvalidArgument)
		}
		if _, ok := seen[o.ID().String()]; ok {
			continue
		}
		seen[o.ID().String()] = struct{}{}
		own = append(own, o)
	}

	return &state{number: number, owners: own, balance: opening}, nil
}

func (s *state) Number() string { return s.number }

func (s *state) Owners() []*models.Customer {
	out := make([]*models.Customer, len(s.owners))
	copy(out, s.owners)
	return out
}

func (s *state) Balance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

func (s *state) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// credit runs check under the state lock and adds amount when it passes.
func (s *state) credit(amount decimal.Decimal, check func() error) error {
	if err := validateDepositAmount(amount); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("cannot deposit to closed account %s: %w", s.number, models.ErrIllegalState)
	}
	if check != nil {
		if err := check(); err != nil {
			return err
		}
	}
	s.balance = s.balance.Add(amount)
	return nil
}

func (s *state) Withdraw(amount decimal.Decimal) error {
	if err := validateWithdrawalAmount(amount); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("cannot withdraw from closed account %s: %w", s.number, models.ErrIllegalState)
	}
	if amount.GreaterThan(s.balance) {
		return fmt.Errorf("account %s does not have enough funds for withdrawal: %w", s.number, models.ErrInsufficientFunds)
	}
	s.balance = s.balance.Sub(amount)
	return nil
}

// Close retires the account. Only an empty account can be closed; closing a
// closed account is a no-op.
func (s *state) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.balance.IsPositive() {
		return fmt.Errorf("cannot close account %s with a positive balance: %w", s.number, models.ErrIllegalState)
	}
	s.closed = true
	return nil
}

func (s *state) restore(amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = s.balance.Add(amount)
}

func (s *state) reverse(amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = s.balance.Sub(amount)
}

func validateDepositAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive: %w", models.ErrInvalidArgument)
	}
	return nil
}

func validateWithdrawalAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("withdrawal amount must be positive: %w", models.ErrInvalidArgument)
	}
	return nil
}
