/**
 * @description
 * This file defines the outbound event payloads published to the message
 * broker after a state-machine transition commits. Publishing is strictly
 * post-commit and fire-and-forget: a failed publish is logged, never
 * surfaced as an approval failure.
 */

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event routing keys used on the ledger events exchange.
const (
	EventTransactionPosted   = "ledger.transaction.posted"
	EventTransactionRejected = "ledger.transaction.rejected"
	EventLoanApproved        = "ledger.loan.approved"
	EventLoanRejected        = "ledger.loan.rejected"
	EventRepaymentPosted     = "ledger.repayment.posted"
	EventRepaymentRejected   = "ledger.repayment.rejected"
	EventAccountDormant      = "ledger.account.dormant"
	EventRecoveryRestored    = "ledger.recovery.restored"
)

// LedgerEvent is the generic envelope for all ledger events.
type LedgerEvent struct {
	Kind          string          `json:"kind"`
	EntityID      string          `json:"entity_id"`
	AccountNumber string          `json:"account_number,omitempty"`
	Amount        decimal.Decimal `json:"amount,omitempty"`
	Actor         string          `json:"actor"`
	Reason        string          `json:"reason,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NotificationChannel selects the delivery transport for customer messages.
type NotificationChannel string

const (
	ChannelSMS   NotificationChannel = "sms"
	ChannelEmail NotificationChannel = "email"
)

// NotificationLogEntry records one best-effort delivery attempt and its
// outcome. Failures land here instead of unwinding the ledger commit.
type NotificationLogEntry struct {
	ID        string              `json:"id"`
	Channel   NotificationChannel `json:"channel"`
	Recipient string              `json:"recipient"`
	Content   string              `json:"content"`
	OK        bool                `json:"ok"`
	Error     string              `json:"error,omitempty"`
	SentAt    time.Time           `json:"sent_at"`
}
