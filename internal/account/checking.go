package account

import (
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
)

// CheckingAccount has no rules beyond the base contract and accepts checks.
type CheckingAccount struct {
	*state
}

func NewCheckingAccount(number string, owners []*models.Customer, opening decimal.Decimal) (*CheckingAccount, error) {
	s, err := newState(number, owners, opening)
	if err != nil {
		return nil, err
	}
	return &CheckingAccount{state: s}, nil
}

func (a *CheckingAccount) Kind() Kind { return KindChecking }

func (a *CheckingAccount) AcceptsChecks() bool { return true }

func (a *CheckingAccount) Deposit(amount decimal.Decimal) error {
	return a.credit(amount, nil)
}

var _ Account = (*CheckingAccount)(nil)
