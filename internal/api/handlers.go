/**
 * @description
 * This file contains the HTTP handlers for the ledger's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer; the core's correctness does not depend on them.
 *
 * @dependencies
 * - encoding/json, errors, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hodalor/smBank-sub000/internal/app"
	"github.com/hodalor/smBank-sub000/internal/domain"
)

// LedgerHandlers holds the application service that handlers will use.
type LedgerHandlers struct {
	service *app.Service
}

// NewLedgerHandlers creates the handler set.
func NewLedgerHandlers(service *app.Service) *LedgerHandlers {
	return &LedgerHandlers{service: service}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain failure classes onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorizedRole),
		errors.Is(err, domain.ErrInvalidApprovalCode),
		errors.Is(err, domain.ErrSameMakerChecker):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrAccountInactive),
		errors.Is(err, domain.ErrAccountDormant),
		errors.Is(err, domain.ErrNonDebitStatus),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrDuplicateGuarantorContact):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return actor, ok
}

type initiateTransactionRequest struct {
	AccountNumber string            `json:"account_number"`
	Amount        decimal.Decimal   `json:"amount"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// DepositHandler initiates a pending deposit.
func (h *LedgerHandlers) DepositHandler(w http.ResponseWriter, r *http.Request) {
	h.initiateTransaction(w, r, domain.KindDeposit)
}

// WithdrawalHandler initiates a pending withdrawal.
func (h *LedgerHandlers) WithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	h.initiateTransaction(w, r, domain.KindWithdrawal)
}

func (h *LedgerHandlers) initiateTransaction(w http.ResponseWriter, r *http.Request, kind domain.TransactionKind) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req initiateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var (
		pending *domain.PendingTransaction
		err     error
	)
	if kind == domain.KindDeposit {
		pending, err = h.service.InitiateDeposit(r.Context(), actor, req.AccountNumber, req.Amount, req.Meta)
	} else {
		pending, err = h.service.InitiateWithdrawal(r.Context(), actor, req.AccountNumber, req.Amount, req.Meta)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pending)
}

type approveRequest struct {
	Code string `json:"code"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// ApproveTransactionHandler commits a pending transaction.
func (h *LedgerHandlers) ApproveTransactionHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	posted, err := h.service.ApproveTransaction(r.Context(), actor, chi.URLParam(r, "id"), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posted)
}

// RejectTransactionHandler rejects a pending transaction into the bin.
func (h *LedgerHandlers) RejectTransactionHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	item, err := h.service.RejectTransaction(r.Context(), actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// BalanceHandler returns the derived balance of an account.
func (h *LedgerHandlers) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	number := chi.URLParam(r, "number")
	balance, err := h.service.Balance(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account_number": number, "balance": balance})
}

type mintAccountNumberRequest struct {
	BranchCode string `json:"branch_code"`
	TypeCode   string `json:"type_code"`
}

// MintAccountNumberHandler mints the next account number.
func (h *LedgerHandlers) MintAccountNumberHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var req mintAccountNumberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	number, err := h.service.NextAccountNumber(r.Context(), req.BranchCode, req.TypeCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"account_number": number})
}

// ApprovalCodeHandler returns the authenticated actor's code for today.
// This backs the "My Account" view; the code itself is never stored.
func (h *LedgerHandlers) ApprovalCodeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": h.service.ApprovalCode(actor.Username)})
}
