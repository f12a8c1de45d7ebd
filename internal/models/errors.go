package models

import "errors"

// Domain errors. Every failure returned by the bank core wraps exactly one of
// these, so callers can branch with errors.Is instead of matching messages.
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrIllegalState         = errors.New("illegal state")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrAccountNotFound      = errors.New("account not found")
	ErrCheckVoided          = errors.New("check is voided")
	ErrAccountExists        = errors.New("account already exists")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrAccountNotFound, "account_not_found"},
	{ErrCheckVoided, "check_voided"},
	{ErrAccountExists, "account_exists"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrUnsupportedOperation, "unsupported_operation"},
	{ErrIllegalState, "illegal_state"},
	{ErrInvalidArgument, "invalid_argument"},
}

// KindOf returns a short machine-readable name for the domain error wrapped by
// err, or "internal" when err is not a domain error.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
