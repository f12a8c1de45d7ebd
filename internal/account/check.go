package account

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
)

// CheckState is the redemption state of a check.
type CheckState string

const (
	CheckUnredeemed CheckState = "UNREDEEMED"
	CheckRedeemed   CheckState = "REDEEMED"
)

// Check is a single-use claim of a fixed amount against a source account.
type Check struct {
	number string
	amount decimal.Decimal
	source Account

	mu    sync.Mutex // serializes redemption
	state CheckState
}

// NewCheck writes a check for amount against source.
func NewCheck(number string, amount decimal.Decimal, source Account) (*Check, error) {
	if number == "" {
		return nil, fmt.Errorf("check number is required: %w", models.ErrInvalidArgument)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("check amount must be positive: %w", models.ErrInvalidArgument)
	}
	if source == nil {
		return nil, fmt.Errorf("check %s needs a source account: %w", number, models.ErrInvalidArgument)
	}
	return &Check{number: number, amount: amount, source: source, state: CheckUnredeemed}, nil
}

func (c *Check) Number() string { return c.number }

func (c *Check) Amount() decimal.Decimal { return c.amount }

func (c *Check) Source() Account { return c.source }

func (c *Check) State() CheckState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Check) IsRedeemed() bool { return c.State() == CheckRedeemed }

// DepositFunds moves the face amount from the source account into dest and
// voids the check. On any failure no funds move and the check stays
// redeemable.
func (c *Check) DepositFunds(dest Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CheckRedeemed {
		return fmt.Errorf("check %s: %w", c.number, models.ErrCheckVoided)
	}
	if dest == nil {
		return fmt.Errorf("check %s needs a destination account: %w", c.number, models.ErrInvalidArgument)
	}
	if !dest.AcceptsChecks() {
		return fmt.Errorf("cannot deposit checks into a %s account: %w", dest.Kind(), models.ErrInvalidArgument)
	}

	if err := c.source.Withdraw(c.amount); err != nil {
		return fmt.Errorf("check %s: %w", c.number, err)
	}
	if err := dest.Deposit(c.amount); err != nil {
		c.source.restore(c.amount)
		return fmt.Errorf("check %s: %w", c.number, err)
	}

	c.state = CheckRedeemed
	return nil
}

// Revert undoes a redemption into dest: the credit is taken back, the source
// debit is restored and the check can be deposited again. Reverting a check
// that is not redeemed does nothing.
func (c *Check) Revert(dest Account) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CheckRedeemed {
		return
	}
	dest.reverse(c.amount)
	c.source.restore(c.amount)
	c.state = CheckUnredeemed
}
