/**
 * @description
 * This file implements the recovery store ("super bin"): generic capture of
 * any destructive action and typed, all-or-nothing restore. Every rejection
 * and every deletion of a governed entity routes through capture before the
 * original record is discarded; no code path in this repo deletes a
 * governed entity directly. Restore dispatches on the item's kind; pending
 * entities always come back with status Pending regardless of prior state.
 *
 * A failed restore (unknown kind, malformed payload) leaves the recovery
 * item in place so the restore can be retried after the cause is fixed.
 */

package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hodalor/smBank-sub000/internal/domain"
	"github.com/hodalor/smBank-sub000/internal/store"
)

// capture snapshots a just-removed entity into the recovery store.
func (s *Service) capture(ctx context.Context, kind domain.RecoveryKind, payload []byte, by, reason string) (*domain.RecoveryItem, error) {
	item := domain.RecoveryItem{
		ID:        newID(),
		Kind:      kind,
		Reason:    reason,
		By:        by,
		DeletedAt: s.now(),
		Payload:   json.RawMessage(payload),
	}
	if err := s.putDoc(ctx, store.RecoveryItems, item.ID, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Capture snapshots an arbitrary entity into the recovery store. It is the
// entry point for collaborators that remove records outside this service.
func (s *Service) Capture(ctx context.Context, kind domain.RecoveryKind, payload any, by, reason string) (*domain.RecoveryItem, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown recovery kind %q", domain.ErrValidation, kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recovery payload: %w", err)
	}
	return s.capture(ctx, kind, raw, by, reason)
}

// ListRecoveryItems returns the current contents of the bin.
func (s *Service) ListRecoveryItems(ctx context.Context) ([]domain.RecoveryItem, error) {
	docs, err := s.store.Get(ctx, store.RecoveryItems, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load recovery items: %w", err)
	}

	items := make([]domain.RecoveryItem, 0, len(docs))
	for _, doc := range docs {
		var item domain.RecoveryItem
		if err := decode(doc, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Restore reconstructs the captured entity and removes the recovery item.
// The reconstruction happens first: if it fails, the item stays in the bin
// and the restore is retryable.
func (s *Service) Restore(ctx context.Context, actor domain.Actor, id string) error {
	var item domain.RecoveryItem
	if err := s.getOne(ctx, store.RecoveryItems, store.Filter{"id": id}, &item); err != nil {
		return err
	}

	if err := s.reinsert(ctx, item); err != nil {
		return err
	}

	if _, err := s.store.Delete(ctx, store.RecoveryItems, store.Filter{"id": id}); err != nil {
		return mapDeleteErr(err, "recovery item")
	}

	s.publishEvent(ctx, domain.EventRecoveryRestored, domain.LedgerEvent{
		Kind:       string(item.Kind),
		EntityID:   id,
		Actor:      actor.Username,
		OccurredAt: s.now(),
	})
	return nil
}

// reinsert dispatches to the kind-specific reconstruction routine. The
// switch is exhaustive over the closed kind set; adding a kind without a
// routine here must fail loudly, not silently drop data.
func (s *Service) reinsert(ctx context.Context, item domain.RecoveryItem) error {
	switch item.Kind {
	case domain.RecoverUser:
		var user domain.User
		if err := json.Unmarshal(item.Payload, &user); err != nil || user.ID == "" {
			return fmt.Errorf("%w: malformed user payload", domain.ErrValidation)
		}
		return s.putDoc(ctx, store.Users, user.ID, user)

	case domain.RecoverClient:
		var client domain.Client
		if err := json.Unmarshal(item.Payload, &client); err != nil || client.AccountNumber == "" {
			return fmt.Errorf("%w: malformed client payload", domain.ErrValidation)
		}
		return s.putDoc(ctx, store.Clients, client.AccountNumber, client)

	case domain.RecoverPendingTxn:
		var pending domain.PendingTransaction
		if err := json.Unmarshal(item.Payload, &pending); err != nil || pending.ID == "" {
			return fmt.Errorf("%w: malformed pending transaction payload", domain.ErrValidation)
		}
		return s.putDoc(ctx, store.PendingTransactions, pending.ID, pending)

	case domain.RecoverLoan:
		var loan domain.Loan
		if err := json.Unmarshal(item.Payload, &loan); err != nil || loan.ID == "" {
			return fmt.Errorf("%w: malformed loan payload", domain.ErrValidation)
		}
		// A restored loan re-enters the checker queue.
		loan.Status = domain.LoanPending
		loan.Approver = ""
		loan.ApprovedAt = nil
		return s.putDoc(ctx, store.Loans, loan.ID, loan)

	case domain.RecoverLoanRepay:
		var pending domain.PendingRepayment
		if err := json.Unmarshal(item.Payload, &pending); err != nil || pending.ID == "" {
			return fmt.Errorf("%w: malformed pending repayment payload", domain.ErrValidation)
		}
		return s.putDoc(ctx, store.PendingRepayments, pending.ID, pending)

	default:
		return fmt.Errorf("%w: unsupported recovery kind %q", domain.ErrValidation, item.Kind)
	}
}

// Purge permanently discards a recovery item with no further effect.
func (s *Service) Purge(ctx context.Context, id string) error {
	if _, err := s.store.Delete(ctx, store.RecoveryItems, store.Filter{"id": id}); err != nil {
		return mapDeleteErr(err, "recovery item")
	}
	return nil
}
