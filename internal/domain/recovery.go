/**
 * @description
 * This file defines the recovery store ("super bin") item. Every rejection
 * and every deletion of a governed entity is captured here as a full
 * pre-deletion snapshot before the original record is discarded, so any
 * destructive action can be reversed by a typed restore.
 */

package domain

import (
	"encoding/json"
	"time"
)

// RecoveryKind tags the payload type of a recovery item. Restore dispatches
// on this tag to a kind-specific reconstruction routine; the set is closed
// and switches over it are expected to be exhaustive.
type RecoveryKind string

const (
	RecoverUser       RecoveryKind = "user"
	RecoverClient     RecoveryKind = "client"
	RecoverPendingTxn RecoveryKind = "pending_txn"
	RecoverLoan       RecoveryKind = "loan"
	RecoverLoanRepay  RecoveryKind = "loan_repay"
)

// Valid reports whether k is one of the known recovery kinds.
func (k RecoveryKind) Valid() bool {
	switch k {
	case RecoverUser, RecoverClient, RecoverPendingTxn, RecoverLoan, RecoverLoanRepay:
		return true
	}
	return false
}

// RecoveryItem is a soft-deleted entity snapshot. Payload is the full JSON
// encoding of the entity at the moment it was captured.
type RecoveryItem struct {
	ID        string          `json:"id"`
	Kind      RecoveryKind    `json:"kind"`
	Reason    string          `json:"reason,omitempty"`
	By        string          `json:"by"`
	DeletedAt time.Time       `json:"deleted_at"`
	Payload   json.RawMessage `json:"payload"`
}
