package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hodalor/smBank-sub000/internal/approval"
	"github.com/hodalor/smBank-sub000/internal/domain"
	"github.com/hodalor/smBank-sub000/internal/store"
)

const testSecret = "test-institution-secret"

var (
	maker   = domain.Actor{Username: "teller.ama", Role: domain.RoleCashier}
	checker = domain.Actor{Username: "mgr.kwame", Role: domain.RoleManager}
)

// newTestService wires a Service onto a throwaway file store with no broker
// and no notifier attached.
func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(st, approval.NewEngine(testSecret), nil, nil, logger, Settings{
		BankCode:              "01",
		BranchCodes:           []string{"001", "002"},
		AccountTypeCodes:      []string{"01", "02"},
		WithdrawalFeeRate:     decimal.Zero,
		LoanServiceFeeRate:    decimal.Zero,
		LoanAdminFeeRate:      decimal.Zero,
		LoanCommitmentFeeRate: decimal.Zero,
		DormancyThreshold:     90 * 24 * time.Hour,
		EventExchange:         "ledger.events",
	})
}

// seedAccount writes an account directly so tests control status and age.
func seedAccount(t *testing.T, s *Service, number string, status domain.AccountStatus, createdAt time.Time) {
	t.Helper()
	account := domain.Account{
		AccountNumber: number,
		ClientID:      number,
		BranchCode:    "001",
		TypeCode:      "01",
		Status:        status,
		CreatedBy:     "seed",
		CreatedAt:     createdAt,
	}
	if err := s.putDoc(context.Background(), store.Accounts, number, account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
}

// checkerCode returns the checker's valid approval code for today.
func checkerCode(s *Service) string {
	return s.ApprovalCode(checker.Username)
}

// postDeposit runs a full maker-checker deposit and returns the posting.
func postDeposit(t *testing.T, s *Service, account string, amount decimal.Decimal) *domain.PostedTransaction {
	t.Helper()
	ctx := context.Background()

	pending, err := s.InitiateDeposit(ctx, maker, account, amount, nil)
	if err != nil {
		t.Fatalf("failed to initiate deposit: %v", err)
	}
	posted, err := s.ApproveTransaction(ctx, checker, pending.ID, checkerCode(s))
	if err != nil {
		t.Fatalf("failed to approve deposit: %v", err)
	}
	return posted
}

// mustBalance fails the test on a balance error.
func mustBalance(t *testing.T, s *Service, account string) decimal.Decimal {
	t.Helper()
	balance, err := s.Balance(context.Background(), account)
	if err != nil {
		t.Fatalf("failed to compute balance: %v", err)
	}
	return balance
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
