/**
 * @description
 * This file implements account-number minting, balance derivation and account
 * administration. The spendable balance is never cached: it is recomputed
 * from posted transaction history on every call, which is what makes the
 * ledger append-only and the balance always auditable.
 *
 * Account numbers are 13 digits: bank(2) + branch(3) + type(2) + serial(6).
 * The serial comes from one global atomic counter shared across all branches
 * and account types, so numbers are unique system-wide even though they
 * encode branch and type.
 */

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hodalor/smBank-sub000/internal/domain"
	"github.com/hodalor/smBank-sub000/internal/store"
)

// NextAccountNumber mints a new account number for the given branch and
// account type. An unknown branch or type code falls back to the first
// configured one rather than failing the operation.
func (s *Service) NextAccountNumber(ctx context.Context, branchCode, typeCode string) (string, error) {
	branch := resolveCode(branchCode, s.settings.BranchCodes)
	accType := resolveCode(typeCode, s.settings.AccountTypeCodes)
	if branch == "" || accType == "" {
		return "", fmt.Errorf("%w: no branch or account type configured", domain.ErrValidation)
	}

	serial, err := s.store.AtomicIncrement(ctx, store.AccountSerialKey)
	if err != nil {
		return "", fmt.Errorf("failed to mint account serial: %w", err)
	}

	return fmt.Sprintf("%02s%03s%02s%06d", s.settings.BankCode, branch, accType, serial), nil
}

// resolveCode returns the requested code if configured, otherwise the first
// configured one.
func resolveCode(requested string, configured []string) string {
	if len(configured) == 0 {
		return ""
	}
	requested = strings.TrimSpace(requested)
	for _, code := range configured {
		if code == requested {
			return code
		}
	}
	return configured[0]
}

// OpenAccount creates a client record and its account with a freshly minted
// account number. The account starts Active with an empty history.
func (s *Service) OpenAccount(ctx context.Context, actor domain.Actor, client domain.Client, branchCode, typeCode, manager string) (*domain.Account, error) {
	if strings.TrimSpace(client.FullName) == "" {
		return nil, fmt.Errorf("%w: client full name is required", domain.ErrValidation)
	}

	number, err := s.NextAccountNumber(ctx, branchCode, typeCode)
	if err != nil {
		return nil, err
	}

	now := s.now()
	client.AccountNumber = number
	client.CreatedBy = actor.Username
	client.CreatedAt = now

	account := domain.Account{
		AccountNumber: number,
		ClientID:      number,
		BranchCode:    resolveCode(branchCode, s.settings.BranchCodes),
		TypeCode:      resolveCode(typeCode, s.settings.AccountTypeCodes),
		Status:        domain.AccountActive,
		Manager:       manager,
		CreatedBy:     actor.Username,
		CreatedAt:     now,
	}

	if err := s.putDoc(ctx, store.Clients, number, client); err != nil {
		return nil, err
	}
	if err := s.putDoc(ctx, store.Accounts, number, account); err != nil {
		return nil, err
	}
	return &account, nil
}

// getAccount loads an account by number.
func (s *Service) getAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	var account domain.Account
	if err := s.getOne(ctx, store.Accounts, store.Filter{"account_number": accountNumber}, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Balance derives the spendable balance of an account from its posted
// transaction history: deposits and loan disbursements credit it, approved
// withdrawals (amount plus fee) debit it. Loan repayments live in their own
// ledger and never appear here.
func (s *Service) Balance(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	docs, err := s.store.Get(ctx, store.PostedTransactions, store.Filter{"account_number": accountNumber})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load posted transactions: %w", err)
	}

	balance := decimal.Zero
	for _, doc := range docs {
		var txn domain.PostedTransaction
		if err := decode(doc, &txn); err != nil {
			return decimal.Zero, err
		}
		switch txn.Kind {
		case domain.KindDeposit, domain.KindLoanDisbursement:
			balance = balance.Add(txn.Amount)
		case domain.KindWithdrawal:
			balance = balance.Sub(txn.Amount).Sub(txn.Fee)
		}
	}
	return balance, nil
}

// ChangeAccountStatus transitions an account's status and appends the change
// to its history. Closure is a status transition; accounts are never
// physically deleted.
func (s *Service) ChangeAccountStatus(ctx context.Context, actor domain.Actor, accountNumber string, to domain.AccountStatus, reason string) error {
	account, err := s.getAccount(ctx, accountNumber)
	if err != nil {
		return err
	}
	if account.Status == to {
		return nil
	}

	account.StatusHistory = append(account.StatusHistory, domain.StatusChange{
		From:      account.Status,
		To:        to,
		By:        actor.Username,
		Reason:    reason,
		ChangedAt: s.now(),
	})
	account.Status = to
	return s.putDoc(ctx, store.Accounts, account.AccountNumber, account)
}

// AssignAccountManager changes the manager assignment with history.
func (s *Service) AssignAccountManager(ctx context.Context, actor domain.Actor, accountNumber, manager string) error {
	account, err := s.getAccount(ctx, accountNumber)
	if err != nil {
		return err
	}
	if account.Manager == manager {
		return nil
	}

	account.ManagerHistory = append(account.ManagerHistory, domain.ManagerChange{
		From:      account.Manager,
		To:        manager,
		By:        actor.Username,
		ChangedAt: s.now(),
	})
	account.Manager = manager
	return s.putDoc(ctx, store.Accounts, account.AccountNumber, account)
}

// DeleteClient soft-deletes a client record through the recovery store. The
// atomic get-and-delete snapshot is the only way a governed record leaves
// its collection.
func (s *Service) DeleteClient(ctx context.Context, actor domain.Actor, accountNumber, reason string) (*domain.RecoveryItem, error) {
	doc, err := s.store.Delete(ctx, store.Clients, store.Filter{"account_number": accountNumber})
	if err != nil {
		return nil, mapDeleteErr(err, "client")
	}
	return s.capture(ctx, domain.RecoverClient, doc, actor.Username, reason)
}

// DeleteUser soft-deletes an operator record through the recovery store.
func (s *Service) DeleteUser(ctx context.Context, actor domain.Actor, userID, reason string) (*domain.RecoveryItem, error) {
	doc, err := s.store.Delete(ctx, store.Users, store.Filter{"id": userID})
	if err != nil {
		return nil, mapDeleteErr(err, "user")
	}
	return s.capture(ctx, domain.RecoverUser, doc, actor.Username, reason)
}
