/**
 * @description
 * This file defines the account entity and its lifecycle metadata. Accounts are
 * identified by a 13-digit number composed of bank(2) + branch(3) + type(2) +
 * serial(6). Accounts are never physically deleted; closure and dormancy are
 * status transitions recorded in an append-only history.
 *
 * @notes
 * - All money amounts in this package use shopspring/decimal to avoid
 *   floating-point drift in financial arithmetic.
 */

package domain

import "time"

// AccountStatus describes the operational state of a customer account.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
	AccountDormant  AccountStatus = "dormant"
	// AccountNonDebit blocks withdrawals while still permitting deposits.
	AccountNonDebit AccountStatus = "non_debit"
)

// StatusChange is one append-only entry in an account's status history.
type StatusChange struct {
	From      AccountStatus `json:"from"`
	To        AccountStatus `json:"to"`
	By        string        `json:"by"`
	Reason    string        `json:"reason,omitempty"`
	ChangedAt time.Time     `json:"changed_at"`
}

// ManagerChange is one append-only entry in an account's manager history.
type ManagerChange struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	By        string    `json:"by"`
	ChangedAt time.Time `json:"changed_at"`
}

// Account is a customer savings/current account. The spendable balance is
// never stored on the account; it is derived from posted transaction history.
type Account struct {
	AccountNumber  string          `json:"account_number"`
	ClientID       string          `json:"client_id"`
	BranchCode     string          `json:"branch_code"`
	TypeCode       string          `json:"type_code"`
	Status         AccountStatus   `json:"status"`
	Manager        string          `json:"manager"`
	StatusHistory  []StatusChange  `json:"status_history,omitempty"`
	ManagerHistory []ManagerChange `json:"manager_history,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Client is the customer record an account belongs to. Client administration
// is mostly a concern of the surrounding platform; the core only needs the
// record shape so deletions can be captured into the recovery store and
// restored, keyed by account number.
type Client struct {
	AccountNumber string    `json:"account_number"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	NationalID    string    `json:"national_id"`
	Email         string    `json:"email,omitempty"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// User is a back-office operator account. User CRUD lives in the admin
// surface; the core governs deletion through the recovery store.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Role is the back-office role attached to an authenticated actor.
type Role string

const (
	RoleCashier Role = "cashier"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// CanApprove reports whether a role is permitted to act as checker in the
// maker-checker flows.
func (r Role) CanApprove() bool {
	return r == RoleManager || r == RoleAdmin
}

// Actor identifies the authenticated operator performing an operation. It is
// supplied by the auth layer (JWT middleware in this repo's API surface).
type Actor struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
