package internal_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"bank_core/internal/api"
	"bank_core/internal/bank"
	"bank_core/internal/config"
	"bank_core/internal/domain"
	"bank_core/internal/repository/memory"
	"bank_core/pkg/crypto"
	"bank_core/pkg/metrics"
)

type testEnv struct {
	service *bank.Service
	mux     *http.ServeMux
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	accounts := memory.NewAccountRegistry()
	customers := memory.NewCustomerDirectory()
	hasher := crypto.NewPasswordHasher(4, nil)
	collector := metrics.NewMetricsCollector(nil)
	service := bank.NewService(accounts, customers, hasher, collector, config.Default(), nil)

	mux := http.NewServeMux()
	api.NewAPIHandler(service, nil).RegisterRoutes(mux)

	return &testEnv{service: service, mux: mux}
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request failed: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, r)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return out
}

func mustRegister(t *testing.T, env *testEnv, name, taxID string) {
	t.Helper()
	w := env.do(t, "POST", "/api/v1/customers", api.RegisterCustomerRequest{
		Name:       name,
		TaxID:      taxID,
		Credential: "s3cret",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register failed with %d: %s", w.Code, w.Body.String())
	}
}

func mustOpenAccount(t *testing.T, env *testEnv, taxID string, kind domain.Kind) int64 {
	t.Helper()
	w := env.do(t, "POST", "/api/v1/accounts", api.OpenAccountRequest{TaxID: taxID, Kind: kind})
	if w.Code != http.StatusCreated {
		t.Fatalf("open account failed with %d: %s", w.Code, w.Body.String())
	}
	return decodeJSON[api.AccountResponse](t, w).ID
}

func mustDeposit(t *testing.T, env *testEnv, accountID int64, amount string) {
	t.Helper()
	w := env.do(t, "POST", "/api/v1/transactions", api.CreateTransactionRequest{
		Type:      api.TypeDeposit,
		AccountID: accountID,
		Amount:    decimal.RequireFromString(amount),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("deposit failed with %d: %s", w.Code, w.Body.String())
	}
}

func TestIntegration_RegisterLoginDeposit(t *testing.T) {
	env := setup(t)

	mustRegister(t, env, "Maria Silva", "11122233344")

	w := env.do(t, "POST", "/api/v1/login", api.LoginRequest{TaxID: "11122233344", Credential: "s3cret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login failed with %d: %s", w.Code, w.Body.String())
	}

	accountID := mustOpenAccount(t, env, "11122233344", domain.KindSavings)
	if accountID != 1001 {
		t.Errorf("expected first account id 1001, got %d", accountID)
	}

	w = env.do(t, "POST", "/api/v1/transactions", api.CreateTransactionRequest{
		Type:      api.TypeDeposit,
		AccountID: accountID,
		Amount:    decimal.RequireFromString("150.25"),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("deposit failed with %d: %s", w.Code, w.Body.String())
	}
	resp := decodeJSON[api.TransactionResponse](t, w)
	if resp.Balance == nil || !resp.Balance.Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("expected balance 150.25 in response, got %v", resp.Balance)
	}
}

func TestIntegration_DuplicateRegistrationConflict(t *testing.T) {
	env := setup(t)
	mustRegister(t, env, "Maria Silva", "11122233344")

	w := env.do(t, "POST", "/api/v1/customers", api.RegisterCustomerRequest{
		Name:       "Impostor",
		TaxID:      "11122233344",
		Credential: "other",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestIntegration_LoginFailuresAreUniform(t *testing.T) {
	env := setup(t)
	mustRegister(t, env, "Maria Silva", "11122233344")

	wrong := env.do(t, "POST", "/api/v1/login", api.LoginRequest{TaxID: "11122233344", Credential: "wrong"})
	unknown := env.do(t, "POST", "/api/v1/login", api.LoginRequest{TaxID: "99988877766", Credential: "s3cret"})

	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both failures, got %d and %d", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Error("login failure responses must not reveal whether the tax id exists")
	}
}

func TestIntegration_WithdrawalInsufficientFunds(t *testing.T) {
	env := setup(t)
	mustRegister(t, env, "Maria Silva", "11122233344")
	accountID := mustOpenAccount(t, env, "11122233344", domain.KindSavings)
	mustDeposit(t, env, accountID, "10.00")

	w := env.do(t, "POST", "/api/v1/transactions", api.CreateTransactionRequest{
		Type:      api.TypeWithdrawal,
		AccountID: accountID,
		Amount:    decimal.RequireFromString("50.00"),
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for insufficient funds, got %d", w.Code)
	}

	entries := listEntries(t, env, accountID)
	if len(entries) != 1 {
		t.Errorf("declined withdrawal must not append entries, got %d", len(entries))
	}
}

func listEntries(t *testing.T, env *testEnv, accountID int64) []domain.Entry {
	t.Helper()
	w := env.do(t, "GET", fmt.Sprintf("/api/v1/transactions?account_id=%d", accountID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list transactions failed with %d: %s", w.Code, w.Body.String())
	}
	return decodeJSON[[]domain.Entry](t, w)
}

func TestIntegration_TransferAndHistory(t *testing.T) {
	env := setup(t)
	mustRegister(t, env, "Maria Silva", "11122233344")
	srcID := mustOpenAccount(t, env, "11122233344", domain.KindChecking)
	dstID := mustOpenAccount(t, env, "11122233344", domain.KindSavings)
	mustDeposit(t, env, srcID, "200.00")

	w := env.do(t, "POST", "/api/v1/transactions", api.CreateTransactionRequest{
		Type:          api.TypeTransfer,
		FromAccountID: srcID,
		ToAccountID:   dstID,
		Amount:        decimal.RequireFromString("80.00"),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("transfer failed with %d: %s", w.Code, w.Body.String())
	}

	srcEntries := listEntries(t, env, srcID)
	dstEntries := listEntries(t, env, dstID)
	if len(srcEntries) != 2 || srcEntries[1].Kind != domain.EntryTransferOut {
		t.Errorf("expected transfer_out as second source entry, got %+v", srcEntries)
	}
	if len(dstEntries) != 1 || dstEntries[0].Kind != domain.EntryTransferIn {
		t.Errorf("expected exactly one transfer_in on destination, got %+v", dstEntries)
	}
	if srcEntries[1].Counterparty != dstID || dstEntries[0].Counterparty != srcID {
		t.Error("transfer entries must name the counterpart account")
	}

	same := env.do(t, "POST", "/api/v1/transactions", api.CreateTransactionRequest{
		Type:          api.TypeTransfer,
		FromAccountID: srcID,
		ToAccountID:   srcID,
		Amount:        decimal.RequireFromString("1.00"),
	})
	if same.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for same-account transfer, got %d", same.Code)
	}
}

func TestIntegration_InterestRun(t *testing.T) {
	env := setup(t)
	mustRegister(t, env, "Maria Silva", "11122233344")
	checkingID := mustOpenAccount(t, env, "11122233344", domain.KindChecking)
	savingsID := mustOpenAccount(t, env, "11122233344", domain.KindSavings)
	mustDeposit(t, env, checkingID, "1000.00")
	mustDeposit(t, env, savingsID, "1000.00")

	w := env.do(t, "POST", "/api/v1/interest/run", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("interest run failed with %d: %s", w.Code, w.Body.String())
	}
	resp := decodeJSON[api.InterestRunResponse](t, w)
	if resp.AccountsProcessed != 2 {
		t.Errorf("expected 2 accounts processed, got %d", resp.AccountsProcessed)
	}

	accounts := env.do(t, "GET", "/api/v1/accounts?tax_id=11122233344", nil)
	summaries := decodeJSON[[]bank.AccountSummary](t, accounts)
	for _, summary := range summaries {
		switch summary.ID {
		case savingsID:
			if !summary.Balance.Equal(decimal.RequireFromString("1005.00")) {
				t.Errorf("expected savings balance 1005.00, got %s", summary.Balance)
			}
		case checkingID:
			if !summary.Balance.Equal(decimal.RequireFromString("1000.00")) {
				t.Errorf("expected checking balance unchanged, got %s", summary.Balance)
			}
		}
	}
}

func TestIntegration_UnknownAccount404(t *testing.T) {
	env := setup(t)

	w := env.do(t, "GET", "/api/v1/transactions?account_id=9999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestIntegration_MissingQueryParams(t *testing.T) {
	env := setup(t)

	if w := env.do(t, "GET", "/api/v1/transactions", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing account_id, got %d", w.Code)
	}
	if w := env.do(t, "GET", "/api/v1/accounts", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing tax_id, got %d", w.Code)
	}
}

func TestIntegration_ConcurrentTransfersConserveTotal(t *testing.T) {
	env := setup(t)
	mustRegister(t, env, "Maria Silva", "11122233344")
	aID := mustOpenAccount(t, env, "11122233344", domain.KindSavings)
	bID := mustOpenAccount(t, env, "11122233344", domain.KindSavings)
	mustDeposit(t, env, aID, "1000.00")

	const n = 10
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = env.do(t, "POST", "/api/v1/transactions", api.CreateTransactionRequest{
				Type:          api.TypeTransfer,
				FromAccountID: aID,
				ToAccountID:   bID,
				Amount:        decimal.RequireFromString("10.00"),
			})
		}()
	}
	wg.Wait()

	accounts := env.do(t, "GET", "/api/v1/accounts?tax_id=11122233344", nil)
	summaries := decodeJSON[[]bank.AccountSummary](t, accounts)
	total := decimal.Zero
	for _, summary := range summaries {
		total = total.Add(summary.Balance)
	}
	if !total.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected total 1000 after concurrent transfers, got %s", total)
	}
}

func TestIntegration_AccountListForCustomer(t *testing.T) {
	env := setup(t)
	mustRegister(t, env, "Maria Silva", "11122233344")

	w := env.do(t, "GET", "/api/v1/accounts?tax_id=11122233344", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for customer without accounts, got %d: %s", w.Code, w.Body.String())
	}
	if accounts := decodeJSON[[]bank.AccountSummary](t, w); len(accounts) != 0 {
		t.Errorf("expected empty account list, got %d entries", len(accounts))
	}

	mustOpenAccount(t, env, "11122233344", domain.KindChecking)
	w = env.do(t, "GET", "/api/v1/accounts?tax_id=11122233344", nil)
	if accounts := decodeJSON[[]bank.AccountSummary](t, w); len(accounts) != 1 {
		t.Errorf("expected 1 account after opening, got %d", len(accounts))
	}

	if w := env.do(t, "GET", "/api/v1/accounts?tax_id=00000000000", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unregistered tax id, got %d", w.Code)
	}
}

func TestIntegration_RegistrationValidationIsBadRequest(t *testing.T) {
	env := setup(t)

	w := env.do(t, "POST", "/api/v1/customers", api.RegisterCustomerRequest{
		Name:       "Maria Silva",
		TaxID:      "12345",
		Credential: "s3cret",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed tax id, got %d: %s", w.Code, w.Body.String())
	}
	if resp := decodeJSON[api.ErrorResponse](t, w); resp.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR code, got %s", resp.Code)
	}
}
