/**
 * @description
 * This file implements the loan repayment state machine. Repayments mirror
 * the transaction flow (pending record, checker approval with the daily
 * code, atomic claim on commit) but post into their own ledger: a posted
 * repayment reduces the loan's outstanding balance and never touches the
 * savings balance.
 *
 * Write-offs reduce outstanding like any posted repayment but carry a
 * distinct mode so revenue aggregates can exclude them.
 */

package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hodalor/smBank-sub000/internal/domain"
	"github.com/hodalor/smBank-sub000/internal/store"
)

// LoanOutstanding computes what remains due on a loan: the frozen total due
// minus every posted repayment, write-offs included. Computed on demand,
// never cached.
func (s *Service) LoanOutstanding(ctx context.Context, loanID string) (decimal.Decimal, error) {
	loan, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return decimal.Zero, err
	}

	docs, err := s.store.Get(ctx, store.PostedRepayments, store.Filter{"loan_id": loanID})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load posted repayments: %w", err)
	}

	outstanding := loan.TotalDue
	for _, doc := range docs {
		var repay domain.PostedRepayment
		if err := decode(doc, &repay); err != nil {
			return decimal.Zero, err
		}
		outstanding = outstanding.Sub(repay.Amount)
	}
	return outstanding, nil
}

// RepaymentRevenue sums posted repayments for a loan excluding write-offs,
// which reduce outstanding without counting as revenue.
func (s *Service) RepaymentRevenue(ctx context.Context, loanID string) (decimal.Decimal, error) {
	docs, err := s.store.Get(ctx, store.PostedRepayments, store.Filter{"loan_id": loanID})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load posted repayments: %w", err)
	}

	revenue := decimal.Zero
	for _, doc := range docs {
		var repay domain.PostedRepayment
		if err := decode(doc, &repay); err != nil {
			return decimal.Zero, err
		}
		if repay.Mode != domain.RepayWriteoff {
			revenue = revenue.Add(repay.Amount)
		}
	}
	return revenue, nil
}

// InitiateRepayment creates a pending repayment against an active loan.
// Full repayments and write-offs settle the current outstanding; partial
// repayments take the supplied amount as-is. The engine does not reject a
// partial amount above outstanding at initiation time.
func (s *Service) InitiateRepayment(ctx context.Context, actor domain.Actor, loanID string, mode domain.RepaymentMode, amount decimal.Decimal) (*domain.PendingRepayment, error) {
	var loan domain.Loan
	if err := s.getOne(ctx, store.Loans, store.Filter{"id": loanID, "status": string(domain.LoanActive)}, &loan); err != nil {
		return nil, err
	}

	switch mode {
	case domain.RepayFull, domain.RepayWriteoff:
		outstanding, err := s.LoanOutstanding(ctx, loanID)
		if err != nil {
			return nil, err
		}
		amount = outstanding
	case domain.RepayPartial:
		if !amount.IsPositive() {
			return nil, fmt.Errorf("%w: partial repayment amount must be positive", domain.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown repayment mode %q", domain.ErrValidation, mode)
	}

	pending := domain.PendingRepayment{
		ID:            newID(),
		LoanID:        loan.ID,
		AccountNumber: loan.AccountNumber,
		Mode:          mode,
		Amount:        amount,
		Initiator:     actor.Username,
		InitiatedAt:   s.now(),
	}
	if err := s.putDoc(ctx, store.PendingRepayments, pending.ID, pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

// ApproveRepayment commits a pending repayment into the repayment ledger
// under the same checker discipline as transactions and loans.
func (s *Service) ApproveRepayment(ctx context.Context, actor domain.Actor, id, code string) (*domain.PostedRepayment, error) {
	var pending domain.PendingRepayment
	if err := s.getOne(ctx, store.PendingRepayments, store.Filter{"id": id}, &pending); err != nil {
		return nil, err
	}

	if err := s.authorizeChecker(actor, code, pending.Initiator); err != nil {
		return nil, err
	}

	if _, err := s.store.Delete(ctx, store.PendingRepayments, store.Filter{"id": id}); err != nil {
		return nil, mapDeleteErr(err, "pending repayment")
	}

	posted := domain.PostedRepayment{
		ID:            pending.ID,
		LoanID:        pending.LoanID,
		AccountNumber: pending.AccountNumber,
		Mode:          pending.Mode,
		Amount:        pending.Amount,
		Initiator:     pending.Initiator,
		Approver:      actor.Username,
		ApprovedAt:    s.now(),
	}
	if err := s.putDoc(ctx, store.PostedRepayments, posted.ID, posted); err != nil {
		s.logger.Error("repayment posting failed after pending claim", "id", posted.ID, "error", err)
		return nil, err
	}

	s.publishEvent(ctx, domain.EventRepaymentPosted, domain.LedgerEvent{
		Kind:          string(posted.Mode),
		EntityID:      posted.ID,
		AccountNumber: posted.AccountNumber,
		Amount:        posted.Amount,
		Actor:         actor.Username,
		OccurredAt:    posted.ApprovedAt,
	})
	go s.notifyAccount(posted.AccountNumber,
		fmt.Sprintf("repayment of %s posted for loan %s", posted.Amount.StringFixed(2), posted.LoanID))

	return &posted, nil
}

// RejectRepayment removes a pending repayment into the recovery store.
func (s *Service) RejectRepayment(ctx context.Context, actor domain.Actor, id, reason string) (*domain.RecoveryItem, error) {
	if !actor.Role.CanApprove() {
		return nil, domain.ErrUnauthorizedRole
	}

	doc, err := s.store.Delete(ctx, store.PendingRepayments, store.Filter{"id": id})
	if err != nil {
		return nil, mapDeleteErr(err, "pending repayment")
	}

	item, err := s.capture(ctx, domain.RecoverLoanRepay, doc, actor.Username, reason)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, domain.EventRepaymentRejected, domain.LedgerEvent{
		Kind:       string(domain.RecoverLoanRepay),
		EntityID:   id,
		Actor:      actor.Username,
		Reason:     reason,
		OccurredAt: s.now(),
	})
	return item, nil
}
