// Package currency holds the fixed exchange-rate table and the conversion
// arithmetic between supported currencies and the reference currency (USD).
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
)

// Code is an ISO 4217 currency code supported by the bank.
type Code string

const (
	USD Code = "USD"
	EUR Code = "EUR"
	GBP Code = "GBP"
	JPY Code = "JPY"
	CAD Code = "CAD"
)

// Reference is the currency every balance is held in.
const Reference = USD

// USD value of one unit of each currency.
var rates = map[Code]decimal.Decimal{
	USD: decimal.NewFromInt(1),
	EUR: decimal.RequireFromString("1.09"),
	GBP: decimal.RequireFromString("1.24"),
	JPY: decimal.RequireFromString("0.0067"),
	CAD: decimal.RequireFromString("0.74"),
}

var supported = []Code{USD, EUR, GBP, JPY, CAD}

// Supported lists every currency in a stable order.
func Supported() []Code {
	out := make([]Code, len(supported))
	copy(out, supported)
	return out
}

// Parse resolves a currency code case-insensitively. An empty string means
// the reference currency.
func Parse(s string) (Code, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Reference, nil
	}
	c := Code(s)
	if _, ok := rates[c]; !ok {
		return "", fmt.Errorf("unsupported currency %q: %w", s, models.ErrInvalidArgument)
	}
	return c, nil
}

// Rate returns the USD value of one unit of code.
func Rate(code Code) (decimal.Decimal, error) {
	r, ok := rates[code]
	if !ok {
		return decimal.Zero, fmt.Errorf("unsupported currency %q: %w", code, models.ErrInvalidArgument)
	}
	return r, nil
}

// ToReference converts amount in code into the reference currency.
func ToReference(code Code, amount decimal.Decimal) (decimal.Decimal, error) {
	r, err := rateFor(code, amount)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(r), nil
}

// FromReference converts a reference-currency amount into code.
func FromReference(code Code, amount decimal.Decimal) (decimal.Decimal, error) {
	r, err := rateFor(code, amount)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Div(r), nil
}

func rateFor(code Code, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount cannot be negative: %w", models.ErrInvalidArgument)
	}
	return Rate(code)
}
