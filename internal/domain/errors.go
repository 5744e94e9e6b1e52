/**
 * @description
 * This file defines the sentinel errors shared across the core. They map onto
 * the failure classes the API surface translates to HTTP statuses: validation,
 * policy, authorization, not-found. Backend failures are wrapped with %w at
 * the call site rather than given sentinels here.
 */

package domain

import "errors"

var (
	// Validation: malformed or missing input, rejected before any state change.
	ErrValidation = errors.New("invalid input")

	// Policy: the request is well-formed but the institution's rules forbid it.
	ErrAccountInactive           = errors.New("account is inactive")
	ErrAccountDormant            = errors.New("account is dormant")
	ErrNonDebitStatus            = errors.New("account is in non-debit status")
	ErrInsufficientFunds         = errors.New("insufficient funds")
	ErrDuplicateGuarantorContact = errors.New("duplicate contact across borrower and guarantors")

	// Authorization: wrong role, invalid approval code, or maker acting as
	// their own checker.
	ErrUnauthorizedRole    = errors.New("role is not permitted to approve")
	ErrInvalidApprovalCode = errors.New("invalid approval code")
	ErrSameMakerChecker    = errors.New("initiator cannot approve their own request")

	// Not found: the target no longer exists, typically because a concurrent
	// caller already approved or rejected it. Idempotent, no side effect.
	ErrNotFound = errors.New("record not found")
)
