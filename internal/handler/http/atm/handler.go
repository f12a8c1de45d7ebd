package atm_http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/account"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/atm"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/currency"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
)

type ATMHandler struct {
	atm    *atm.ATM
	logger *zap.Logger
}

func NewATMHandler(a *atm.ATM, l *zap.Logger) *ATMHandler {
	return &ATMHandler{atm: a, logger: l}
}

type OwnerRequest struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type OpenAccountRequest struct {
	Number         string          `json:"number"`
	Kind           string          `json:"kind"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Owners         []OwnerRequest  `json:"owners"`
}

type DepositRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type IssueCheckRequest struct {
	Number        string          `json:"number"`
	SourceAccount string          `json:"source_account"`
	Amount        decimal.Decimal `json:"amount"`
}

type AccountResponse struct {
	Number  string          `json:"number"`
	Kind    string          `json:"kind"`
	Balance decimal.Decimal `json:"balance"`
	Closed  bool            `json:"closed"`
	Owners  []uuid.UUID     `json:"owners"`
}

type CheckResponse struct {
	Number        string          `json:"number"`
	SourceAccount string          `json:"source_account"`
	Amount        decimal.Decimal `json:"amount"`
	State         string          `json:"state"`
}

type TransactionResponse struct {
	ID         string          `json:"id"`
	Sequence   uint64          `json:"sequence"`
	Type       string          `json:"type"`
	Instrument string          `json:"instrument"`
	Amount     decimal.Decimal `json:"amount"`
	Timestamp  string          `json:"timestamp"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (h *ATMHandler) OpenAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req OpenAccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	owners := make([]*models.Customer, 0, len(req.Owners))
	for _, o := range req.Owners {
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		// reuse the registered customer so joint ownership is tracked on one record
		if known, ok := h.atm.Customer(o.ID); ok {
			owners = append(owners, known)
			continue
		}
		owners = append(owners, models.NewCustomer(o.ID, o.Name))
	}

	var (
		acc account.Account
		err error
	)
	switch account.Kind(strings.ToUpper(req.Kind)) {
	case account.KindChecking:
		acc, err = account.NewCheckingAccount(req.Number, owners, req.OpeningBalance)
	case account.KindSavings:
		acc, err = account.NewSavingsAccount(req.Number, owners, req.OpeningBalance)
	default:
		h.writeError(w, r, models.ErrInvalidArgument, "unknown account kind")
		return
	}
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if err := h.atm.RegisterNewAccount(acc); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	h.writeJSON(w, http.StatusCreated, toAccountResponse(acc))
}

func (h *ATMHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	acc, ok := h.atm.Account(number)
	if !ok {
		h.writeError(w, r, models.ErrAccountNotFound, "account not found")
		return
	}
	h.writeJSON(w, http.StatusOK, toAccountResponse(acc))
}

func (h *ATMHandler) DepositHandler(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	var req DepositRequest
	if !h.decode(w, r, &req) {
		return
	}
	code, err := currency.Parse(req.Currency)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if err := h.atm.DepositCashIn(r.Context(), number, req.Amount, code); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	h.writeAccount(w, r, number)
}

func (h *ATMHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	var req WithdrawRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.atm.WithdrawCash(r.Context(), number, req.Amount); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	h.writeAccount(w, r, number)
}

func (h *ATMHandler) CloseAccountHandler(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if err := h.atm.CloseAccount(r.Context(), number); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	h.writeAccount(w, r, number)
}

func (h *ATMHandler) DepositCheckHandler(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	checkNumber := chi.URLParam(r, "checkNumber")

	chk, ok := h.atm.Check(checkNumber)
	if !ok {
		h.writeError(w, r, models.ErrInvalidArgument, "unknown check "+checkNumber)
		return
	}
	if err := h.atm.DepositCheck(r.Context(), number, chk); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	h.writeAccount(w, r, number)
}

func (h *ATMHandler) IssueCheckHandler(w http.ResponseWriter, r *http.Request) {
	var req IssueCheckRequest
	if !h.decode(w, r, &req) {
		return
	}
	chk, err := h.atm.IssueCheck(req.SourceAccount, req.Number, req.Amount)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	h.writeJSON(w, http.StatusCreated, toCheckResponse(chk))
}

func (h *ATMHandler) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if _, ok := h.atm.Account(number); !ok {
		h.writeError(w, r, models.ErrAccountNotFound, "account not found")
		return
	}
	txs, err := h.atm.Transactions(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	resp := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, TransactionResponse{
			ID:         tx.ID,
			Sequence:   tx.Sequence,
			Type:       string(tx.Type),
			Instrument: string(tx.Instrument),
			Amount:     tx.Amount,
			Timestamp:  tx.Timestamp.Format(time.RFC3339Nano),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *ATMHandler) CustomerAccountsHandler(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid customer id", zap.String("customer_id", idStr), zap.Error(err))
		h.writeError(w, r, models.ErrInvalidArgument, "invalid customer id")
		return
	}

	var accs []account.Account
	switch account.Kind(strings.ToUpper(r.URL.Query().Get("kind"))) {
	case "":
		accs = h.atm.AccountsOwnedBy(id)
	case account.KindChecking:
		accs = h.atm.CheckingAccountsOf(id)
	case account.KindSavings:
		accs = h.atm.SavingsAccountsOf(id)
	default:
		h.writeError(w, r, models.ErrInvalidArgument, "unknown account kind")
		return
	}

	resp := make([]AccountResponse, 0, len(accs))
	for _, acc := range accs {
		resp = append(resp, toAccountResponse(acc))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *ATMHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("Invalid request body", zap.String("path", r.URL.Path), zap.Error(err))
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Kind: "invalid_argument"})
		return false
	}
	return true
}

func (h *ATMHandler) writeAccount(w http.ResponseWriter, r *http.Request, number string) {
	acc, ok := h.atm.Account(number)
	if !ok {
		h.writeError(w, r, models.ErrAccountNotFound, "account not found")
		return
	}
	h.writeJSON(w, http.StatusOK, toAccountResponse(acc))
}

// writeError maps a domain error onto a status code. msg overrides the
// error text when set.
func (h *ATMHandler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFor(err)
	if msg == "" {
		msg = err.Error()
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal server error"
	}
	h.writeJSON(w, status, ErrorResponse{Error: msg, Kind: models.KindOf(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrIllegalState),
		errors.Is(err, models.ErrCheckVoided),
		errors.Is(err, models.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnsupportedOperation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *ATMHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func toAccountResponse(acc account.Account) AccountResponse {
	owners := acc.Owners()
	ids := make([]uuid.UUID, 0, len(owners))
	for _, o := range owners {
		ids = append(ids, o.ID())
	}
	return AccountResponse{
		Number:  acc.Number(),
		Kind:    string(acc.Kind()),
		Balance: acc.Balance(),
		Closed:  acc.IsClosed(),
		Owners:  ids,
	}
}

func toCheckResponse(chk *account.Check) CheckResponse {
	return CheckResponse{
		Number:        chk.Number(),
		SourceAccount: chk.Source().Number(),
		Amount:        chk.Amount(),
		State:         string(chk.State()),
	}
}
