/**
 * @description
 * This file implements the loan origination state machine: Pending -> Active
 * on approval, or removal into the recovery store on rejection. Interest and
 * fees are computed once at creation from the rates configured at that
 * moment and frozen onto the loan; later rate changes never reprice it.
 *
 * Approving a loan produces, as a side effect, exactly one posted
 * transaction of kind loan_disbursement for the principal. That posting is
 * how loan money enters the savings ledger's withdrawal pool; the loan's own
 * outstanding balance is tracked separately and never mixes with it.
 */

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hodalor/smBank-sub000/internal/domain"
	"github.com/hodalor/smBank-sub000/internal/store"
)

// CreateLoanRequest carries a loan application.
type CreateLoanRequest struct {
	AccountNumber string
	BorrowerPhone string
	BorrowerNID   string
	Guarantor1    domain.Guarantor
	Guarantor2    domain.Guarantor
	Principal     decimal.Decimal
	Rate          decimal.Decimal
	TermMonths    int
}

// CreateLoan validates and prices a loan application, freezing interest,
// fees and total due at creation time.
func (s *Service) CreateLoan(ctx context.Context, actor domain.Actor, req CreateLoanRequest) (*domain.Loan, error) {
	if !req.Principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive", domain.ErrValidation)
	}
	if req.Rate.IsNegative() {
		return nil, fmt.Errorf("%w: rate cannot be negative", domain.ErrValidation)
	}
	if req.TermMonths <= 0 {
		return nil, fmt.Errorf("%w: term must be at least one month", domain.ErrValidation)
	}

	account, err := s.getAccount(ctx, req.AccountNumber)
	if err != nil {
		return nil, err
	}
	if account.Status == domain.AccountInactive {
		return nil, domain.ErrAccountInactive
	}

	if err := checkGuarantorContacts(req); err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	interest := req.Principal.
		Mul(req.Rate).Div(hundred).
		Mul(decimal.NewFromInt(int64(req.TermMonths))).Div(decimal.NewFromInt(12))

	fees := domain.LoanFees{
		Service:    req.Principal.Mul(s.settings.LoanServiceFeeRate).Div(hundred),
		Admin:      req.Principal.Mul(s.settings.LoanAdminFeeRate).Div(hundred),
		Commitment: req.Principal.Mul(s.settings.LoanCommitmentFeeRate).Div(hundred),
	}

	loan := domain.Loan{
		ID:            newID(),
		AccountNumber: req.AccountNumber,
		BorrowerPhone: req.BorrowerPhone,
		BorrowerNID:   req.BorrowerNID,
		Guarantor1:    req.Guarantor1,
		Guarantor2:    req.Guarantor2,
		Principal:     req.Principal,
		Rate:          req.Rate,
		TermMonths:    req.TermMonths,
		TotalInterest: interest,
		Fees:          fees,
		TotalDue:      req.Principal.Add(interest).Add(fees.Total()),
		Status:        domain.LoanPending,
		Initiator:     actor.Username,
		InitiatedAt:   s.now(),
	}
	if err := s.putDoc(ctx, store.Loans, loan.ID, loan); err != nil {
		return nil, err
	}
	return &loan, nil
}

// checkGuarantorContacts enforces the uniqueness rule: no phone number or
// national ID may repeat across borrower, guarantor1 and guarantor2 on a
// single application.
func checkGuarantorContacts(req CreateLoanRequest) error {
	phones := []string{req.BorrowerPhone, req.Guarantor1.Phone, req.Guarantor2.Phone}
	ids := []string{req.BorrowerNID, req.Guarantor1.NationalID, req.Guarantor2.NationalID}

	if hasDuplicate(phones) || hasDuplicate(ids) {
		return domain.ErrDuplicateGuarantorContact
	}
	return nil
}

func hasDuplicate(values []string) bool {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "" {
			continue
		}
		if seen[v] {
			return true
		}
		seen[v] = true
	}
	return false
}

// ApproveLoan activates a pending loan and disburses the principal into the
// savings ledger. The pending loan is claimed atomically by the filtered
// delete, so a concurrent approve or reject observes not-found.
func (s *Service) ApproveLoan(ctx context.Context, actor domain.Actor, id, code string) (*domain.Loan, error) {
	var loan domain.Loan
	if err := s.getOne(ctx, store.Loans, store.Filter{"id": id, "status": string(domain.LoanPending)}, &loan); err != nil {
		return nil, err
	}

	if err := s.authorizeChecker(actor, code, loan.Initiator); err != nil {
		return nil, err
	}

	if _, err := s.store.Delete(ctx, store.Loans, store.Filter{"id": id, "status": string(domain.LoanPending)}); err != nil {
		return nil, mapDeleteErr(err, "pending loan")
	}

	now := s.now()
	loan.Status = domain.LoanActive
	loan.Approver = actor.Username
	loan.ApprovedAt = &now
	if err := s.putDoc(ctx, store.Loans, loan.ID, loan); err != nil {
		s.logger.Error("loan reinsert failed after pending claim", "id", loan.ID, "error", err)
		return nil, err
	}

	disbursement := domain.PostedTransaction{
		ID:            newID(),
		Kind:          domain.KindLoanDisbursement,
		AccountNumber: loan.AccountNumber,
		Amount:        loan.Principal,
		Fee:           decimal.Zero,
		Initiator:     loan.Initiator,
		Approver:      actor.Username,
		ApprovedAt:    now,
		Meta:          map[string]string{"loan_id": loan.ID},
	}
	if err := s.putDoc(ctx, store.PostedTransactions, disbursement.ID, disbursement); err != nil {
		s.logger.Error("disbursement posting failed after loan activation", "loan_id", loan.ID, "error", err)
		return nil, err
	}

	s.publishEvent(ctx, domain.EventLoanApproved, domain.LedgerEvent{
		Kind:          string(domain.KindLoanDisbursement),
		EntityID:      loan.ID,
		AccountNumber: loan.AccountNumber,
		Amount:        loan.Principal,
		Actor:         actor.Username,
		OccurredAt:    now,
	})
	go s.notifyAccount(loan.AccountNumber,
		fmt.Sprintf("loan of %s approved for account %s", loan.Principal.StringFixed(2), loan.AccountNumber))

	return &loan, nil
}

// RejectLoan removes a pending loan into the recovery store.
func (s *Service) RejectLoan(ctx context.Context, actor domain.Actor, id, reason string) (*domain.RecoveryItem, error) {
	if !actor.Role.CanApprove() {
		return nil, domain.ErrUnauthorizedRole
	}

	doc, err := s.store.Delete(ctx, store.Loans, store.Filter{"id": id, "status": string(domain.LoanPending)})
	if err != nil {
		return nil, mapDeleteErr(err, "pending loan")
	}

	item, err := s.capture(ctx, domain.RecoverLoan, doc, actor.Username, reason)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, domain.EventLoanRejected, domain.LedgerEvent{
		Kind:       string(domain.RecoverLoan),
		EntityID:   id,
		Actor:      actor.Username,
		Reason:     reason,
		OccurredAt: s.now(),
	})
	return item, nil
}

// GetLoan loads a loan regardless of status.
func (s *Service) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	var loan domain.Loan
	if err := s.getOne(ctx, store.Loans, store.Filter{"id": id}, &loan); err != nil {
		return nil, err
	}
	return &loan, nil
}
