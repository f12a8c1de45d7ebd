package atm_http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/atm"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/audit"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/models"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/storage/memory"
)

type testServer struct {
	srv      *httptest.Server
	customer uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	a := atm.NewATM(audit.NewLog(memory.NewMemoryAuditStore()), nil, zap.NewNop())
	r := chi.NewRouter()
	RegisterRoutes(r, a, zap.NewNop())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ts := &testServer{srv: srv, customer: uuid.New()}
	ts.open(t, "123456789", "checking", "100")
	ts.open(t, "987654321", "savings", "0")
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequestWithContext(context.Background(), method, ts.srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, out.Bytes()
}

func (ts *testServer) open(t *testing.T, number, kind, opening string) {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/accounts", map[string]any{
		"number":          number,
		"kind":            kind,
		"opening_balance": opening,
		"owners":          []map[string]string{{"id": ts.customer.String(), "name": "John Doe"}},
	})
	if status != http.StatusCreated {
		t.Fatalf("open %s: status=%d body=%s", number, status, body)
	}
}

func decodeAccount(t *testing.T, body []byte) AccountResponse {
	t.Helper()
	var acc AccountResponse
	if err := json.Unmarshal(body, &acc); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return acc
}

func decodeError(t *testing.T, body []byte) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return e
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	if status, _ := ts.do(t, http.MethodGet, "/health", nil); status != http.StatusOK {
		t.Fatalf("status=%d", status)
	}
}

func TestForeignDepositsOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/accounts/123456789/deposit", map[string]string{"amount": "100", "currency": "EUR"})
	if status != http.StatusOK {
		t.Fatalf("status=%d body=%s", status, body)
	}
	if acc := decodeAccount(t, body); !acc.Balance.Equal(decimal.NewFromInt(209)) {
		t.Fatalf("balance=%s", acc.Balance)
	}

	_, body = ts.do(t, http.MethodPost, "/accounts/123456789/deposit", map[string]string{"amount": "100", "currency": "gbp"})
	if acc := decodeAccount(t, body); !acc.Balance.Equal(decimal.NewFromInt(333)) {
		t.Fatalf("balance=%s", acc.Balance)
	}

	status, body = ts.do(t, http.MethodGet, "/accounts/123456789/transactions", nil)
	if status != http.StatusOK {
		t.Fatalf("status=%d", status)
	}
	var txs []TransactionResponse
	if err := json.Unmarshal(body, &txs); err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 || txs[0].Instrument != string(models.InstrumentCash) || !txs[1].Amount.Equal(decimal.NewFromInt(124)) {
		t.Fatalf("unexpected transactions: %s", body)
	}
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		kind   string
	}{
		{"unknown account", http.MethodPost, "/accounts/999999999/withdraw", map[string]string{"amount": "10"}, http.StatusNotFound, "account_not_found"},
		{"negative deposit", http.MethodPost, "/accounts/123456789/deposit", map[string]string{"amount": "-5"}, http.StatusBadRequest, "invalid_argument"},
		{"unknown currency", http.MethodPost, "/accounts/123456789/deposit", map[string]string{"amount": "5", "currency": "XYZ"}, http.StatusBadRequest, "invalid_argument"},
		{"overdraw", http.MethodPost, "/accounts/123456789/withdraw", map[string]string{"amount": "1000"}, http.StatusConflict, "insufficient_funds"},
		{"savings ceiling", http.MethodPost, "/accounts/987654321/deposit", map[string]string{"amount": "10000.01"}, http.StatusUnprocessableEntity, "unsupported_operation"},
		{"close funded", http.MethodPost, "/accounts/123456789/close", nil, http.StatusConflict, "illegal_state"},
		{"bad customer id", http.MethodGet, "/customers/nope/accounts", nil, http.StatusBadRequest, "invalid_argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, tt.method, tt.path, tt.body)
			if status != tt.status {
				t.Fatalf("status=%d want=%d body=%s", status, tt.status, body)
			}
			if e := decodeError(t, body); e.Kind != tt.kind {
				t.Fatalf("kind=%q want=%q", e.Kind, tt.kind)
			}
		})
	}
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodPost, ts.srv.URL+"/accounts/123456789/deposit", bytes.NewBufferString("{"))
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestCheckLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.open(t, "555000111", "checking", "0")

	status, body := ts.do(t, http.MethodPost, "/checks", map[string]string{"number": "CHK-1", "source_account": "123456789", "amount": "30"})
	if status != http.StatusCreated {
		t.Fatalf("issue: status=%d body=%s", status, body)
	}

	status, body = ts.do(t, http.MethodPost, "/accounts/987654321/checks/CHK-1", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("check into savings: status=%d body=%s", status, body)
	}

	status, body = ts.do(t, http.MethodPost, "/accounts/555000111/checks/CHK-1", nil)
	if status != http.StatusOK {
		t.Fatalf("deposit: status=%d body=%s", status, body)
	}
	if acc := decodeAccount(t, body); !acc.Balance.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("balance=%s", acc.Balance)
	}

	status, body = ts.do(t, http.MethodPost, "/accounts/555000111/checks/CHK-1", nil)
	if status != http.StatusConflict || decodeError(t, body).Kind != "check_voided" {
		t.Fatalf("reuse: status=%d body=%s", status, body)
	}

	if status, _ := ts.do(t, http.MethodPost, "/accounts/555000111/checks/NOPE", nil); status != http.StatusBadRequest {
		t.Fatalf("unknown check: status=%d", status)
	}
}

func TestCloseAndCustomerAccounts(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodPost, "/accounts/987654321/close", nil)
	if status != http.StatusOK || !decodeAccount(t, body).Closed {
		t.Fatalf("close: status=%d body=%s", status, body)
	}
	if status, _ := ts.do(t, http.MethodPost, "/accounts/987654321/deposit", map[string]string{"amount": "1"}); status != http.StatusNotFound {
		t.Fatalf("deposit to closed: status=%d", status)
	}

	status, body = ts.do(t, http.MethodGet, fmt.Sprintf("/customers/%s/accounts?kind=checking", ts.customer), nil)
	if status != http.StatusOK {
		t.Fatalf("status=%d", status)
	}
	var accs []AccountResponse
	if err := json.Unmarshal(body, &accs); err != nil {
		t.Fatal(err)
	}
	if len(accs) != 1 || accs[0].Number != "123456789" {
		t.Fatalf("accounts=%s", body)
	}

	_, body = ts.do(t, http.MethodGet, fmt.Sprintf("/customers/%s/accounts", uuid.New()), nil)
	if string(bytes.TrimSpace(body)) != "[]" {
		t.Fatalf("unknown customer: %s", body)
	}
}

func TestDuplicateAccount(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, http.MethodPost, "/accounts", map[string]any{
		"number": "123456789", "kind": "checking", "opening_balance": "0",
		"owners": []map[string]string{{"name": "Jane Roe"}},
	})
	if status != http.StatusConflict || decodeError(t, body).Kind != "account_exists" {
		t.Fatalf("status=%d body=%s", status, body)
	}
	// the original account is untouched
	_, body = ts.do(t, http.MethodGet, "/accounts/123456789", nil)
	if acc := decodeAccount(t, body); !acc.Balance.Equal(decimal.NewFromInt(100)) || acc.Owners[0] != ts.customer {
		t.Fatalf("account replaced: %s", body)
	}
}

func TestConcurrentOpenSameNumber(t *testing.T) {
	ts := newTestServer(t)
	payload := []byte(`{"number":"777","kind":"checking","opening_balance":"0","owners":[{"name":"Jane Roe"}]}`)

	var created, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := ts.srv.Client().Post(ts.srv.URL+"/accounts", "application/json", bytes.NewReader(payload))
			if err != nil {
				t.Errorf("post: %v", err)
				return
			}
			resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			default:
				t.Errorf("status=%d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 || conflicts.Load() != 19 {
		t.Fatalf("created=%d conflicts=%d", created.Load(), conflicts.Load())
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("status=%d", got)
	}
	if got := statusFor(fmt.Errorf("wrapped: %w", models.ErrCheckVoided)); got != http.StatusConflict {
		t.Fatalf("status=%d", got)
	}
}
