/**
 * @description
 * This file defines loan origination and repayment entities. Interest, fees
 * and the total due are computed once at creation from the institution's
 * configured rates and frozen; later configuration changes never reprice an
 * existing loan. Repayments live in their own ledger and never touch the
 * savings balance.
 */

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus tracks a loan through the maker-checker flow. Rejected loans do
// not get a status of their own; rejection removes the loan into the
// recovery store.
type LoanStatus string

const (
	LoanPending LoanStatus = "pending"
	LoanActive  LoanStatus = "active"
)

// Guarantor is one of the two guarantors required on a loan application.
// No phone number or national ID may repeat across the borrower and both
// guarantors on a single application.
type Guarantor struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
}

// LoanFees holds the origination fees frozen at creation time.
type LoanFees struct {
	Service    decimal.Decimal `json:"service"`
	Admin      decimal.Decimal `json:"admin"`
	Commitment decimal.Decimal `json:"commitment"`
}

// Total returns the sum of all origination fees.
func (f LoanFees) Total() decimal.Decimal {
	return f.Service.Add(f.Admin).Add(f.Commitment)
}

// Loan is a loan application and, once approved, an active loan. Principal,
// rate, term, interest, fees and total due are immutable after creation.
type Loan struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"account_number"`
	BorrowerPhone string          `json:"borrower_phone"`
	BorrowerNID   string          `json:"borrower_national_id"`
	Guarantor1    Guarantor       `json:"guarantor1"`
	Guarantor2    Guarantor       `json:"guarantor2"`
	Principal     decimal.Decimal `json:"principal"`
	// Rate is the annual interest rate in percent.
	Rate          decimal.Decimal `json:"rate"`
	TermMonths    int             `json:"term_months"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	Fees          LoanFees        `json:"fees"`
	TotalDue      decimal.Decimal `json:"total_due"`
	Status        LoanStatus      `json:"status"`
	Initiator     string          `json:"initiator"`
	Approver      string          `json:"approver,omitempty"`
	InitiatedAt   time.Time       `json:"initiated_at"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
}

// RepaymentMode discriminates how a repayment affects the outstanding ledger.
type RepaymentMode string

const (
	RepayFull    RepaymentMode = "full"
	RepayPartial RepaymentMode = "partial"
	// RepayWriteoff clears outstanding without counting as revenue.
	RepayWriteoff RepaymentMode = "writeoff"
)

// PendingRepayment is a maker-initiated loan repayment awaiting a checker.
type PendingRepayment struct {
	ID            string          `json:"id"`
	LoanID        string          `json:"loan_id"`
	AccountNumber string          `json:"account_number"`
	Mode          RepaymentMode   `json:"mode"`
	Amount        decimal.Decimal `json:"amount"`
	Initiator     string          `json:"initiator"`
	InitiatedAt   time.Time       `json:"initiated_at"`
}

// PostedRepayment is an immutable entry in the loan repayment ledger.
type PostedRepayment struct {
	ID            string          `json:"id"`
	LoanID        string          `json:"loan_id"`
	AccountNumber string          `json:"account_number"`
	Mode          RepaymentMode   `json:"mode"`
	Amount        decimal.Decimal `json:"amount"`
	Initiator     string          `json:"initiator"`
	Approver      string          `json:"approver"`
	ApprovedAt    time.Time       `json:"approved_at"`
}
