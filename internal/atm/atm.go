package atm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/account"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/audit"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/currency"
	interfaces "github.com/sheikh-saqib/bank-atm-ledger/internal/interfaces"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/models/events"
)

// ATM is the entry point of the bank core. It owns the account, customer
// and check registries, routes deposits and withdrawals to accounts and
// writes an audit entry for every mutation that commits.
type ATM struct {
	audit     *audit.Log                // append-only record of committed mutations
	publisher interfaces.EventPublisher // optional, nil means events are not published
	logger    *zap.Logger               // structured logger, never nil after NewATM

	regMu     sync.RWMutex                   // protects the registries below
	accounts  map[string]account.Account     // account number -> account, closed ones included
	customers map[uuid.UUID]*models.Customer // customer id -> customer
	checks    map[string]*account.Check      // check number -> issued check

	muMap map[string]*sync.Mutex // stores the *sync.Mutex for each account number
	mapMu sync.Mutex             // protects the muMap itself
}

// NewATM builds an ATM around an audit log. publisher and logger may be nil.
func NewATM(auditLog *audit.Log, publisher interfaces.EventPublisher, logger *zap.Logger) *ATM {
	if logger == nil {
		logger = zap.NewNop() // callers that don't care about logs get a no-op logger
	}
	return &ATM{
		audit:     auditLog,
		publisher: publisher,
		logger:    logger,
		accounts:  make(map[string]account.Account),
		customers: make(map[uuid.UUID]*models.Customer),
		checks:    make(map[string]*account.Check),
		muMap:     make(map[string]*sync.Mutex),
	}
}

// getAccountLock returns the mutex of an account number, creating it on
// first use.
func (a *ATM) getAccountLock(accountNumber string) *sync.Mutex {
	a.mapMu.Lock()         // guard the map while we look up or insert
	defer a.mapMu.Unlock() // release the map lock when done

	if _, exists := a.muMap[accountNumber]; !exists {
		a.muMap[accountNumber] = &sync.Mutex{}
	}
	return a.muMap[accountNumber]
}

// lockPair locks both accounts in lexical order to avoid deadlocks and
// returns the matching unlock.
func (a *ATM) lockPair(first, second string) func() {
	// same account on both sides: a sync.Mutex is not reentrant, lock once
	if first == second {
		mu := a.getAccountLock(first)
		mu.Lock()
		return mu.Unlock
	}
	// Lock in order to avoid deadlocks
	if second < first {
		first, second = second, first
	}
	m1 := a.getAccountLock(first)
	m2 := a.getAccountLock(second)
	m1.Lock()
	m2.Lock()
	return func() {
		m2.Unlock() // release in reverse order
		m1.Unlock()
	}
}

// RegisterAccount adds acc under its number, replacing any account already
// registered there, and merges its owners into the customer registry.
func (a *ATM) RegisterAccount(acc account.Account) {
	a.regMu.Lock()
	defer a.regMu.Unlock()

	a.registerLocked(acc)
}

// RegisterNewAccount is RegisterAccount for callers that must not replace an
// existing account. The check and the insert happen under one lock.
func (a *ATM) RegisterNewAccount(acc account.Account) error {
	a.regMu.Lock()
	defer a.regMu.Unlock()

	if _, exists := a.accounts[acc.Number()]; exists {
		return fmt.Errorf("register account %s: %w", acc.Number(), models.ErrAccountExists)
	}
	a.registerLocked(acc)
	return nil
}

// registerLocked inserts acc and links its owners. regMu must be held.
func (a *ATM) registerLocked(acc account.Account) {
	a.accounts[acc.Number()] = acc // insert or overwrite by number
	for _, owner := range acc.Owners() {
		// the registry keeps the first customer value seen for an id
		known, ok := a.customers[owner.ID()]
		if !ok {
			a.customers[owner.ID()] = owner
			known = owner
		}
		known.AddAccount(acc.Number())
		// a different value with the same id gets the back reference too
		if known != owner {
			owner.AddAccount(acc.Number())
		}
	}
	a.logger.Info("Account registered",
		zap.String("account_number", acc.Number()),
		zap.String("kind", string(acc.Kind())),
		zap.Int("owners", len(acc.Owners())))
}

// Account returns the registered account with the given number, closed or
// not.
func (a *ATM) Account(accountNumber string) (account.Account, bool) {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	acc, ok := a.accounts[accountNumber]
	return acc, ok
}

// Customer returns a registered customer.
func (a *ATM) Customer(id uuid.UUID) (*models.Customer, bool) {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	c, ok := a.customers[id]
	return c, ok
}

// AccountsOwnedBy returns the accounts of a customer sorted by number. An
// unknown customer owns nothing.
func (a *ATM) AccountsOwnedBy(customerID uuid.UUID) []account.Account {
	a.regMu.RLock()
	defer a.regMu.RUnlock()

	c, ok := a.customers[customerID]
	if !ok {
		return []account.Account{} // unknown customers are not an error
	}
	out := make([]account.Account, 0)
	for _, n := range c.AccountNumbers() {
		if acc, ok := a.accounts[n]; ok {
			out = append(out, acc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number() < out[j].Number() })
	return out
}

func (a *ATM) CheckingAccountsOf(customerID uuid.UUID) []account.Account {
	return filterKind(a.AccountsOwnedBy(customerID), account.KindChecking)
}

func (a *ATM) SavingsAccountsOf(customerID uuid.UUID) []account.Account {
	return filterKind(a.AccountsOwnedBy(customerID), account.KindSavings)
}

func filterKind(accs []account.Account, kind account.Kind) []account.Account {
	out := make([]account.Account, 0, len(accs))
	for _, acc := range accs {
		if acc.Kind() == kind {
			out = append(out, acc)
		}
	}
	return out
}

// resolve returns an open registered account. Unknown and closed accounts
// are both reported as not found.
func (a *ATM) resolve(accountNumber string) (account.Account, error) {
	acc, ok := a.Account(accountNumber)
	if !ok || acc.IsClosed() {
		return nil, fmt.Errorf("lookup account %s: %w", accountNumber, models.ErrAccountNotFound)
	}
	return acc, nil
}

// DepositCash deposits an amount of the reference currency.
func (a *ATM) DepositCash(ctx context.Context, accountNumber string, amount decimal.Decimal) error {
	return a.DepositCashIn(ctx, accountNumber, amount, currency.Reference)
}

// DepositCashIn converts amount from code into the reference currency and
// deposits it. A zero amount is accepted and does nothing.
func (a *ATM) DepositCashIn(ctx context.Context, accountNumber string, amount decimal.Decimal, code currency.Code) error {
	// Zero is a no-op: no lookup, no mutation, no audit entry
	if amount.IsZero() {
		return nil
	}
	// Negative amounts are rejected before the account is resolved
	if amount.IsNegative() {
		return a.reject("deposit", accountNumber,
			fmt.Errorf("deposit amount must be positive: %w", models.ErrInvalidArgument))
	}

	acc, err := a.resolve(accountNumber)
	if err != nil {
		return a.reject("deposit", accountNumber, err)
	}
	// Balances and audit entries are kept in the reference currency
	usd, err := currency.ToReference(code, amount)
	if err != nil {
		return a.reject("deposit", accountNumber, err)
	}

	unlock := a.lockPair(accountNumber, accountNumber)
	tx, err := a.commit(ctx, acc,
		func() error { return acc.Deposit(usd) },
		func() { account.ReverseDeposit(acc, usd) },
		models.TransactionDeposit, usd, models.InstrumentCash)
	unlock()
	if err != nil {
		return a.reject("deposit", accountNumber, err)
	}

	a.logger.Info("Cash deposited",
		zap.String("account_number", accountNumber),
		zap.String("amount", amount.String()),
		zap.String("currency", string(code)),
		zap.String("amount_usd", usd.String()))
	a.publish(ctx, tx) // after unlock: no I/O to the broker under the account lock
	return nil
}

// DepositCheck redeems chk into the account. Savings accounts never take
// checks.
func (a *ATM) DepositCheck(ctx context.Context, accountNumber string, chk *account.Check) error {
	if chk == nil {
		return a.reject("deposit_check", accountNumber,
			fmt.Errorf("check is required: %w", models.ErrInvalidArgument))
	}
	acc, err := a.resolve(accountNumber)
	if err != nil {
		return a.reject("deposit_check", accountNumber, err)
	}
	// Savings destinations are refused before any funds move
	if !acc.AcceptsChecks() {
		return a.reject("deposit_check", accountNumber,
			fmt.Errorf("cannot deposit checks into a savings account: %w", models.ErrInvalidArgument))
	}

	// Get locks for both the source and the destination account
	unlock := a.lockPair(chk.Source().Number(), accountNumber)
	tx, err := a.commit(ctx, acc,
		func() error { return chk.DepositFunds(acc) },
		func() { chk.Revert(acc) },
		models.TransactionDeposit, chk.Amount(), models.InstrumentCheck)
	unlock()
	if err != nil {
		return a.reject("deposit_check", accountNumber, err)
	}

	a.logger.Info("Check deposited",
		zap.String("account_number", accountNumber),
		zap.String("check_number", chk.Number()),
		zap.String("source_account", chk.Source().Number()),
		zap.String("amount", chk.Amount().String()))
	a.publish(ctx, tx)
	return nil
}

// WithdrawCash takes an amount of the reference currency out of the account.
// The account is resolved first; the account itself rejects a non-positive
// amount.
func (a *ATM) WithdrawCash(ctx context.Context, accountNumber string, amount decimal.Decimal) error {
	acc, err := a.resolve(accountNumber)
	if err != nil {
		return a.reject("withdraw", accountNumber, err)
	}

	unlock := a.lockPair(accountNumber, accountNumber)
	tx, err := a.commit(ctx, acc,
		func() error { return acc.Withdraw(amount) },
		func() { account.ReverseWithdrawal(acc, amount) },
		models.TransactionWithdrawal, amount, models.InstrumentCash)
	unlock()
	if err != nil {
		return a.reject("withdraw", accountNumber, err)
	}

	a.logger.Info("Cash withdrawn",
		zap.String("account_number", accountNumber),
		zap.String("amount", amount.String()))
	a.publish(ctx, tx)
	return nil
}

// CloseAccount retires an empty account. It stays registered, but later
// operations on it fail with ErrAccountNotFound.
func (a *ATM) CloseAccount(ctx context.Context, accountNumber string) error {
	acc, err := a.resolve(accountNumber)
	if err != nil {
		return a.reject("close", accountNumber, err)
	}

	mu := a.getAccountLock(accountNumber)
	mu.Lock() // no deposit or withdrawal can interleave with the close
	err = acc.Close()
	mu.Unlock()
	if err != nil {
		return a.reject("close", accountNumber, err)
	}

	a.logger.Info("Account closed", zap.String("account_number", accountNumber))
	return nil
}

// commit runs mutate and appends the audit entry. Both happen under the
// caller's account lock so audit order matches commit order. If the entry
// cannot be written, undo reverts the mutation so nothing is half committed.
// The account is re-checked first because it may have been closed while the
// caller waited for the lock.
func (a *ATM) commit(ctx context.Context, acc account.Account, mutate func() error, undo func(),
	txType models.TransactionType, amount decimal.Decimal, instrument models.Instrument) (models.Transaction, error) {
	if acc.IsClosed() {
		return models.Transaction{}, fmt.Errorf("lookup account %s: %w", acc.Number(), models.ErrAccountNotFound)
	}
	// Apply the balance change; a failure here leaves no trace
	if err := mutate(); err != nil {
		return models.Transaction{}, err
	}
	// Record the committed change; on failure roll the balance back
	tx, err := a.audit.Record(ctx, acc.Number(), txType, amount, instrument)
	if err != nil {
		undo()
		a.logger.Error("Audit append failed, mutation reverted",
			zap.String("account_number", acc.Number()),
			zap.String("type", string(txType)),
			zap.String("amount", amount.String()),
			zap.Error(err))
		return models.Transaction{}, err
	}
	return tx, nil
}

// Transactions returns the audit entries of an account in commit order.
func (a *ATM) Transactions(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	return a.audit.TransactionsFor(ctx, accountNumber)
}

// IssueCheck writes a check against a registered open account and keeps it
// so that later deposits can refer to it by number.
func (a *ATM) IssueCheck(sourceNumber, checkNumber string, amount decimal.Decimal) (*account.Check, error) {
	src, err := a.resolve(sourceNumber)
	if err != nil {
		return nil, err
	}
	chk, err := account.NewCheck(checkNumber, amount, src)
	if err != nil {
		return nil, err
	}

	a.regMu.Lock()
	defer a.regMu.Unlock()
	// Check numbers identify instruments, so they can't be reused
	if _, exists := a.checks[checkNumber]; exists {
		return nil, fmt.Errorf("check %s already issued: %w", checkNumber, models.ErrInvalidArgument)
	}
	a.checks[checkNumber] = chk

	a.logger.Info("Check issued",
		zap.String("check_number", checkNumber),
		zap.String("source_account", sourceNumber),
		zap.String("amount", amount.String()))
	return chk, nil
}

// Check returns an issued check.
func (a *ATM) Check(checkNumber string) (*account.Check, bool) {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	chk, ok := a.checks[checkNumber]
	return chk, ok
}

// reject logs a refused operation and hands the error back unchanged.
func (a *ATM) reject(op, accountNumber string, err error) error {
	a.logger.Warn("Operation rejected",
		zap.String("op", op),
		zap.String("account_number", accountNumber),
		zap.String("kind", models.KindOf(err)),
		zap.Error(err))
	return err
}

// publish sends the committed entry as an event. Failures are logged only:
// the mutation and its audit entry are already in place.
func (a *ATM) publish(ctx context.Context, tx models.Transaction) {
	if a.publisher == nil {
		return
	}
	event := events.TransactionRecorded{
		TransactionID: tx.ID,
		Sequence:      tx.Sequence,
		AccountNumber: tx.AccountNumber,
		Type:          string(tx.Type),
		Instrument:    string(tx.Instrument),
		Amount:        tx.Amount,
		OccurredAt:    tx.Timestamp,
	}
	// keyed by account so one account's events stay on one partition
	if err := a.publisher.Publish(ctx, tx.AccountNumber, event); err != nil {
		a.logger.Error("Failed to publish transaction event",
			zap.String("transaction_id", tx.ID),
			zap.String("account_number", tx.AccountNumber),
			zap.Error(err))
	}
}
