/**
 * @description
 * This file defines the `Store` interface, the uniform persistence contract
 * every higher component codes against. Two interchangeable adapters
 * implement it: a PostgreSQL-backed document store and a flat-file store
 * used as the startup fallback. By defining an interface, the state machines
 * are written once and remain oblivious to which backend is active.
 *
 * Semantics both adapters must satisfy:
 * - Delete is an atomic get-and-remove of a single matching record, returning
 *   the removed document so callers can snapshot it before discarding. A
 *   second concurrent Delete on the same record observes ErrNotFound.
 * - AtomicIncrement is a race-free counter increment; it is the sole source
 *   of account-number uniqueness.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 */

package store

import (
	"context"
	"errors"
)

// Collection names for the logical entity sets the core persists.
const (
	Accounts            = "accounts"
	Clients             = "clients"
	Users               = "users"
	PendingTransactions = "pending_transactions"
	PostedTransactions  = "posted_transactions"
	Loans               = "loans"
	PendingRepayments   = "pending_repayments"
	PostedRepayments    = "posted_repayments"
	RecoveryItems       = "recovery_items"
	NotificationLog     = "notification_log"
)

// AccountSerialKey is the counter backing account-serial minting. It is a
// single global counter shared across all branches and account types.
const AccountSerialKey = "account_serial"

// ErrNotFound is returned when a filter matches no document.
var ErrNotFound = errors.New("store: document not found")

// Filter matches documents by equality on top-level JSON fields.
type Filter map[string]any

// Store is the persistence abstraction. Documents are JSON-encoded entities
// keyed by (collection, id); callers own the entity schema.
type Store interface {
	// Get returns all documents in the collection matching the filter. A nil
	// or empty filter returns the whole collection.
	Get(ctx context.Context, collection string, f Filter) ([][]byte, error)

	// Put upserts a document under the given id.
	Put(ctx context.Context, collection, id string, doc []byte) error

	// Delete atomically removes one document matching the filter and returns
	// it, or ErrNotFound if nothing matches.
	Delete(ctx context.Context, collection string, f Filter) ([]byte, error)

	// AtomicIncrement increments the named counter and returns the new value.
	// The counter never decreases and values are never reused.
	AtomicIncrement(ctx context.Context, key string) (int64, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close()
}
