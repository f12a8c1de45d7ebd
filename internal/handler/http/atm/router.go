package atm_http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/atm"
)

func RegisterRoutes(r chi.Router, a *atm.ATM, l *zap.Logger) {
	handler := NewATMHandler(a, l.With(zap.String("component", "ATMHTTPHandler")))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", handler.OpenAccountHandler)
		r.Route("/{number}", func(r chi.Router) {
			r.Get("/", handler.GetAccountHandler)
			r.Post("/deposit", handler.DepositHandler)
			r.Post("/withdraw", handler.WithdrawHandler)
			r.Post("/close", handler.CloseAccountHandler)
			r.Post("/checks/{checkNumber}", handler.DepositCheckHandler)
			r.Get("/transactions", handler.TransactionsHandler)
		})
	})

	r.Post("/checks", handler.IssueCheckHandler)
	r.Get("/customers/{id}/accounts", handler.CustomerAccountsHandler)
}
