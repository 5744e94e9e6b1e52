/**
 * @description
 * This file contains the HTTP handlers for loan origination, loan
 * repayments and the recovery store endpoints.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hodalor/smBank-sub000/internal/app"
	"github.com/hodalor/smBank-sub000/internal/domain"
)

type createLoanRequest struct {
	AccountNumber string           `json:"account_number"`
	BorrowerPhone string           `json:"borrower_phone"`
	BorrowerNID   string           `json:"borrower_national_id"`
	Guarantor1    domain.Guarantor `json:"guarantor1"`
	Guarantor2    domain.Guarantor `json:"guarantor2"`
	Principal     decimal.Decimal  `json:"principal"`
	Rate          decimal.Decimal  `json:"rate"`
	TermMonths    int              `json:"term_months"`
}

// CreateLoanHandler submits a loan application into the checker queue.
func (h *LedgerHandlers) CreateLoanHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req createLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), actor, app.CreateLoanRequest{
		AccountNumber: req.AccountNumber,
		BorrowerPhone: req.BorrowerPhone,
		BorrowerNID:   req.BorrowerNID,
		Guarantor1:    req.Guarantor1,
		Guarantor2:    req.Guarantor2,
		Principal:     req.Principal,
		Rate:          req.Rate,
		TermMonths:    req.TermMonths,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// ApproveLoanHandler activates a pending loan and disburses the principal.
func (h *LedgerHandlers) ApproveLoanHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	loan, err := h.service.ApproveLoan(r.Context(), actor, chi.URLParam(r, "id"), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// RejectLoanHandler rejects a pending loan into the bin.
func (h *LedgerHandlers) RejectLoanHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	item, err := h.service.RejectLoan(r.Context(), actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// LoanOutstandingHandler returns what remains due on a loan.
func (h *LedgerHandlers) LoanOutstandingHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	id := chi.URLParam(r, "id")
	outstanding, err := h.service.LoanOutstanding(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"loan_id": id, "outstanding": outstanding})
}

type initiateRepaymentRequest struct {
	LoanID string               `json:"loan_id"`
	Mode   domain.RepaymentMode `json:"mode"`
	Amount decimal.Decimal      `json:"amount"`
}

// InitiateRepaymentHandler submits a repayment into the checker queue.
func (h *LedgerHandlers) InitiateRepaymentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req initiateRepaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	pending, err := h.service.InitiateRepayment(r.Context(), actor, req.LoanID, req.Mode, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pending)
}

// ApproveRepaymentHandler commits a pending repayment.
func (h *LedgerHandlers) ApproveRepaymentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	posted, err := h.service.ApproveRepayment(r.Context(), actor, chi.URLParam(r, "id"), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posted)
}

// RejectRepaymentHandler rejects a pending repayment into the bin.
func (h *LedgerHandlers) RejectRepaymentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	item, err := h.service.RejectRepayment(r.Context(), actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ListRecoveryHandler lists the contents of the recovery bin.
func (h *LedgerHandlers) ListRecoveryHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	items, err := h.service.ListRecoveryItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// RestoreRecoveryHandler restores a captured entity.
func (h *LedgerHandlers) RestoreRecoveryHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.service.Restore(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// PurgeRecoveryHandler permanently discards a recovery item.
func (h *LedgerHandlers) PurgeRecoveryHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	if err := h.service.Purge(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}
