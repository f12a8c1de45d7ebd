package account

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
)

// SavingsDepositCeiling is the largest single deposit a savings account takes.
var SavingsDepositCeiling = decimal.NewFromInt(10000)

// SavingsAccount caps single deposits and never accepts checks.
type SavingsAccount struct {
	*state
}

func NewSavingsAccount(number string, owners []*models.Customer, opening decimal.Decimal) (*SavingsAccount, error) {
	s, err := newState(number, owners, opening)
	if err != nil {
		return nil, err
	}
	return &SavingsAccount{state: s}, nil
}

func (a *SavingsAccount) Kind() Kind { return KindSavings }

func (a *SavingsAccount) AcceptsChecks() bool { return false }

func (a *SavingsAccount) Deposit(amount decimal.Decimal) error {
	return a.credit(amount, func() error {
		if amount.GreaterThan(SavingsDepositCeiling) {
			return fmt.Errorf("savings accounts do not accept deposits over %s: %w",
				SavingsDepositCeiling.StringFixed(2), models.ErrUnsupportedOperation)
		}
		return nil
	})
}

var _ Account = (*SavingsAccount)(nil)
