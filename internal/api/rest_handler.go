package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"bank_core/internal/bank"
	"bank_core/internal/domain"
	"bank_core/internal/repository"
	"bank_core/pkg/validator"
)

type APIHandler struct {
	service        *bank.Service
	logger         *slog.Logger
	requestTimeout time.Duration
}

func NewAPIHandler(service *bank.Service, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		service:        service,
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

type RegisterCustomerRequest struct {
	Name       string `json:"name"`
	TaxID      string `json:"tax_id"`
	Credential string `json:"credential"`
}

type LoginRequest struct {
	TaxID      string `json:"tax_id"`
	Credential string `json:"credential"`
}

type CustomerResponse struct {
	Name       string  `json:"name"`
	TaxID      string  `json:"tax_id"`
	AccountIDs []int64 `json:"account_ids"`
}

type OpenAccountRequest struct {
	TaxID string      `json:"tax_id"`
	Kind  domain.Kind `json:"kind"`
}

type AccountResponse struct {
	ID      int64           `json:"id"`
	Kind    domain.Kind     `json:"kind"`
	OwnerID string          `json:"owner_tax_id"`
	Balance decimal.Decimal `json:"balance"`
}

// Transaction types accepted by CreateTransactionHandler. Transfers
// are one request type even though they land as two ledger entries.
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
	TypeTransfer   = "transfer"
)

type CreateTransactionRequest struct {
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	AccountID     int64           `json:"account_id,omitempty"`
	FromAccountID int64           `json:"from_account_id,omitempty"`
	ToAccountID   int64           `json:"to_account_id,omitempty"`
}

type TransactionResponse struct {
	Balance *decimal.Decimal `json:"balance,omitempty"`
	Message string           `json:"message"`
}

type InterestRunResponse struct {
	AccountsProcessed int `json:"accounts_processed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *APIHandler) RegisterCustomerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req RegisterCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	customer, err := h.service.RegisterCustomer(ctx, req.Name, req.TaxID, req.Credential)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendJSON(w, CustomerResponse{
		Name:       customer.Name,
		TaxID:      customer.TaxID,
		AccountIDs: customer.AccountIDs,
	}, http.StatusCreated)
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	customer, err := h.service.Authenticate(ctx, req.TaxID, req.Credential)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendJSON(w, CustomerResponse{
		Name:       customer.Name,
		TaxID:      customer.TaxID,
		AccountIDs: customer.AccountIDs,
	}, http.StatusOK)
}

func (h *APIHandler) OpenAccountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	account, err := h.service.OpenAccount(ctx, req.TaxID, req.Kind)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendJSON(w, AccountResponse{
		ID:      account.ID,
		Kind:    account.Kind,
		OwnerID: account.OwnerTaxID,
		Balance: account.Balance,
	}, http.StatusCreated)
}

func (h *APIHandler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	taxID := r.URL.Query().Get("tax_id")
	if taxID == "" {
		h.sendError(w, "tax_id is required", http.StatusBadRequest, "MISSING_TAX_ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	summaries, err := h.service.ListAccounts(ctx, taxID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendJSON(w, summaries, http.StatusOK)
}

func (h *APIHandler) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	switch req.Type {
	case TypeDeposit:
		balance, err := h.service.Deposit(ctx, req.AccountID, req.Amount)
		if err != nil {
			h.handleServiceError(w, err)
			return
		}
		h.sendJSON(w, TransactionResponse{Balance: &balance, Message: "Deposit completed"}, http.StatusCreated)
	case TypeWithdrawal:
		balance, err := h.service.Withdraw(ctx, req.AccountID, req.Amount)
		if err != nil {
			h.handleServiceError(w, err)
			return
		}
		h.sendJSON(w, TransactionResponse{Balance: &balance, Message: "Withdrawal completed"}, http.StatusCreated)
	case TypeTransfer:
		if err := h.service.Transfer(ctx, req.FromAccountID, req.ToAccountID, req.Amount); err != nil {
			h.handleServiceError(w, err)
			return
		}
		h.sendJSON(w, TransactionResponse{Message: "Transfer completed"}, http.StatusCreated)
	default:
		h.sendError(w, fmt.Sprintf("unknown transaction type: %s", req.Type), http.StatusBadRequest, "UNKNOWN_TYPE")
	}
}

func (h *APIHandler) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("account_id")
	if raw == "" {
		h.sendError(w, "account_id is required", http.StatusBadRequest, "MISSING_ACCOUNT_ID")
		return
	}
	accountID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.sendError(w, "account_id must be an integer", http.StatusBadRequest, "INVALID_ACCOUNT_ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	entries, err := h.service.ListTransactions(ctx, accountID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendJSON(w, entries, http.StatusOK)
}

func (h *APIHandler) RunInterestHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	processed, err := h.service.ApplyInterestToAll(ctx)
	if err != nil {
		h.logger.Warn("Interest sweep skipped contended accounts",
			slog.String("error", err.Error()))
	}

	h.sendJSON(w, InterestRunResponse{AccountsProcessed: processed}, http.StatusOK)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.sendError(w, err.Error(), http.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, repository.ErrDuplicate):
		h.sendError(w, err.Error(), http.StatusConflict, "DUPLICATE_TAX_ID")
	case errors.Is(err, domain.ErrInsufficientFunds):
		h.sendError(w, err.Error(), http.StatusConflict, "INSUFFICIENT_FUNDS")
	case errors.Is(err, domain.ErrInvalidAmount):
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_AMOUNT")
	case errors.Is(err, domain.ErrSameAccount):
		h.sendError(w, err.Error(), http.StatusBadRequest, "SAME_ACCOUNT")
	case errors.Is(err, domain.ErrLockTimeout):
		h.sendError(w, err.Error(), http.StatusServiceUnavailable, "LOCK_TIMEOUT")
	case errors.Is(err, bank.ErrAuthentication):
		h.sendError(w, err.Error(), http.StatusUnauthorized, "AUTH_FAILED")
	case errors.Is(err, bank.ErrUnknownKind), errors.Is(err, bank.ErrNotOwner),
		errors.Is(err, validator.ErrValidation):
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
	default:
		h.sendError(w, err.Error(), http.StatusInternalServerError, "INTERNAL_ERROR")
	}
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/customers", h.RegisterCustomerHandler)
	mux.HandleFunc("POST /api/v1/login", h.LoginHandler)
	mux.HandleFunc("POST /api/v1/accounts", h.OpenAccountHandler)
	mux.HandleFunc("GET /api/v1/accounts", h.ListAccountsHandler)
	mux.HandleFunc("POST /api/v1/transactions", h.CreateTransactionHandler)
	mux.HandleFunc("GET /api/v1/transactions", h.ListTransactionsHandler)
	mux.HandleFunc("POST /api/v1/interest/run", h.RunInterestHandler)
	mux.HandleFunc("GET /api/health", h.HealthCheckHandler)
}
