/**
 * @description
 * This file implements the maker-checker state machine for deposits and
 * withdrawals: Pending -> {Approved, Rejected}, both terminal. A pending
 * record is consumed exactly once: the commit step claims it with the
 * store's atomic get-and-delete, so a second concurrent approve or reject
 * on the same id observes not-found instead of double-processing.
 *
 * All validation, policy and authorization checks run before any state
 * change. Events and customer notifications are emitted strictly after the
 * commit and are fire-and-forget.
 */

package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hodalor/smBank-sub000/internal/domain"
	"github.com/hodalor/smBank-sub000/internal/store"
)

// InitiateDeposit creates a pending deposit awaiting a checker. Deposits are
// blocked only on Inactive accounts; dormant and non-debit accounts may
// still receive money.
func (s *Service) InitiateDeposit(ctx context.Context, actor domain.Actor, accountNumber string, amount decimal.Decimal, meta map[string]string) (*domain.PendingTransaction, error) {
	return s.initiateTransaction(ctx, actor, domain.KindDeposit, accountNumber, amount, meta)
}

// InitiateWithdrawal creates a pending withdrawal. Besides the status gates,
// it requires amount <= balance at initiation time. That check is advisory:
// the balance can move before approval, so the approve step re-verifies.
func (s *Service) InitiateWithdrawal(ctx context.Context, actor domain.Actor, accountNumber string, amount decimal.Decimal, meta map[string]string) (*domain.PendingTransaction, error) {
	return s.initiateTransaction(ctx, actor, domain.KindWithdrawal, accountNumber, amount, meta)
}

func (s *Service) initiateTransaction(ctx context.Context, actor domain.Actor, kind domain.TransactionKind, accountNumber string, amount decimal.Decimal, meta map[string]string) (*domain.PendingTransaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}

	account, err := s.getAccount(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if err := checkAccountStatus(account.Status, kind); err != nil {
		return nil, err
	}

	if kind == domain.KindWithdrawal {
		balance, err := s.Balance(ctx, accountNumber)
		if err != nil {
			return nil, err
		}
		if amount.GreaterThan(balance) {
			return nil, domain.ErrInsufficientFunds
		}
	}

	pending := domain.PendingTransaction{
		ID:            newID(),
		Kind:          kind,
		AccountNumber: accountNumber,
		Amount:        amount,
		Initiator:     actor.Username,
		InitiatedAt:   s.now(),
		Meta:          meta,
	}
	if err := s.putDoc(ctx, store.PendingTransactions, pending.ID, pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

// checkAccountStatus enforces the status policy: Inactive blocks everything;
// Dormant and Non-Debit-Status block withdrawals but permit deposits.
func checkAccountStatus(status domain.AccountStatus, kind domain.TransactionKind) error {
	switch status {
	case domain.AccountInactive:
		return domain.ErrAccountInactive
	case domain.AccountDormant:
		if kind == domain.KindWithdrawal {
			return domain.ErrAccountDormant
		}
	case domain.AccountNonDebit:
		if kind == domain.KindWithdrawal {
			return domain.ErrNonDebitStatus
		}
	}
	return nil
}

// ApproveTransaction is the checker side of the flow. It authorizes the
// actor, re-verifies funds for withdrawals with the fee rate current at
// approval time, then commits: the atomic removal of the pending record is
// the single commit point for this id, followed by exactly one posted entry.
func (s *Service) ApproveTransaction(ctx context.Context, actor domain.Actor, id, code string) (*domain.PostedTransaction, error) {
	var pending domain.PendingTransaction
	if err := s.getOne(ctx, store.PendingTransactions, store.Filter{"id": id}, &pending); err != nil {
		return nil, err
	}

	if err := s.authorizeChecker(actor, code, pending.Initiator); err != nil {
		return nil, err
	}

	fee := decimal.Zero
	if pending.Kind == domain.KindWithdrawal {
		// The fee rate current at approval time applies, not the one at
		// initiation.
		fee = pending.Amount.Mul(s.settings.WithdrawalFeeRate).Div(decimal.NewFromInt(100))
		total := pending.Amount.Add(fee)

		balance, err := s.Balance(ctx, pending.AccountNumber)
		if err != nil {
			return nil, err
		}
		if total.GreaterThan(balance) {
			return nil, domain.ErrInsufficientFunds
		}
	}

	// Claim the pending record. A concurrent approve/reject that lost this
	// race gets not-found and performs no side effect.
	if _, err := s.store.Delete(ctx, store.PendingTransactions, store.Filter{"id": id}); err != nil {
		return nil, mapDeleteErr(err, "pending transaction")
	}

	posted := domain.PostedTransaction{
		ID:            pending.ID,
		Kind:          pending.Kind,
		AccountNumber: pending.AccountNumber,
		Amount:        pending.Amount,
		Fee:           fee,
		Initiator:     pending.Initiator,
		Approver:      actor.Username,
		ApprovedAt:    s.now(),
		Meta:          pending.Meta,
	}
	if err := s.putDoc(ctx, store.PostedTransactions, posted.ID, posted); err != nil {
		// The pending record is already consumed; this must not be retried
		// here. Surface the backend failure for operator intervention.
		s.logger.Error("posted insert failed after pending claim", "id", posted.ID, "error", err)
		return nil, err
	}

	s.publishEvent(ctx, domain.EventTransactionPosted, domain.LedgerEvent{
		Kind:          string(posted.Kind),
		EntityID:      posted.ID,
		AccountNumber: posted.AccountNumber,
		Amount:        posted.Amount,
		Actor:         actor.Username,
		OccurredAt:    posted.ApprovedAt,
	})
	go s.notifyAccount(posted.AccountNumber,
		fmt.Sprintf("%s of %s posted to account %s", posted.Kind, posted.Amount.StringFixed(2), posted.AccountNumber))

	return &posted, nil
}

// RejectTransaction removes the pending record and captures its full
// snapshot into the recovery store, so the rejection is reversible.
func (s *Service) RejectTransaction(ctx context.Context, actor domain.Actor, id, reason string) (*domain.RecoveryItem, error) {
	if !actor.Role.CanApprove() {
		return nil, domain.ErrUnauthorizedRole
	}

	doc, err := s.store.Delete(ctx, store.PendingTransactions, store.Filter{"id": id})
	if err != nil {
		return nil, mapDeleteErr(err, "pending transaction")
	}

	item, err := s.capture(ctx, domain.RecoverPendingTxn, doc, actor.Username, reason)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, domain.EventTransactionRejected, domain.LedgerEvent{
		Kind:       string(domain.RecoverPendingTxn),
		EntityID:   id,
		Actor:      actor.Username,
		Reason:     reason,
		OccurredAt: s.now(),
	})
	return item, nil
}
