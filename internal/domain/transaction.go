/**
 * @description
 * This file defines the pending/posted transaction pair at the heart of the
 * maker-checker ledger. A PendingTransaction exists only between initiation
 * and its approval or rejection; a PostedTransaction is immutable history and
 * the sole input to balance derivation.
 */

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind discriminates ledger postings.
type TransactionKind string

const (
	KindDeposit    TransactionKind = "deposit"
	KindWithdrawal TransactionKind = "withdraw"
	// KindLoanDisbursement is produced only as a side effect of loan
	// approval, never requested directly.
	KindLoanDisbursement TransactionKind = "loan_disbursement"
)

// PendingTransaction is a maker-initiated money movement awaiting a checker.
// It is consumed (deleted) by approval or rejection; the same id never
// coexists in the posted set.
type PendingTransaction struct {
	ID            string            `json:"id"`
	Kind          TransactionKind   `json:"kind"`
	AccountNumber string            `json:"account_number"`
	Amount        decimal.Decimal   `json:"amount"`
	Initiator     string            `json:"initiator"`
	InitiatedAt   time.Time         `json:"initiated_at"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// PostedTransaction is an immutable ledger entry carrying the approver's
// identity. Withdrawal postings also carry the fee charged at approval time.
type PostedTransaction struct {
	ID            string            `json:"id"`
	Kind          TransactionKind   `json:"kind"`
	AccountNumber string            `json:"account_number"`
	Amount        decimal.Decimal   `json:"amount"`
	Fee           decimal.Decimal   `json:"fee"`
	Initiator     string            `json:"initiator"`
	Approver      string            `json:"approver"`
	ApprovedAt    time.Time         `json:"approved_at"`
	Meta          map[string]string `json:"meta,omitempty"`
}
