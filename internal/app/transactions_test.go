package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hodalor/smBank-sub000/internal/domain"
	"github.com/hodalor/smBank-sub000/internal/store"
)

func TestDepositApprovalIncreasesBalance(t *testing.T) {
	s := newTestService(t)
	seedAccount(t, s, "0100101000001", domain.AccountActive, time.Now())

	if !mustBalance(t, s, "0100101000001").IsZero() {
		t.Fatal("expected zero starting balance")
	}

	posted := postDeposit(t, s, "0100101000001", dec("500"))
	if posted.Approver != checker.Username {
		t.Fatalf("expected approver %q, got %q", checker.Username, posted.Approver)
	}

	if got := mustBalance(t, s, "0100101000001"); !got.Equal(dec("500")) {
		t.Fatalf("expected balance 500, got %s", got)
	}
}

func TestWithdrawalBlockedByInsufficientFundsAtInitiation(t *testing.T) {
	s := newTestService(t)
	seedAccount(t, s, "0100101000001", domain.AccountActive, time.Now())
	postDeposit(t, s, "0100101000001", dec("500"))

	_, err := s.InitiateWithdrawal(context.Background(), maker, "0100101000001", dec("600"), nil)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	if got := mustBalance(t, s, "0100101000001"); !got.Equal(dec("500")) {
		t.Fatalf("expected balance to remain 500, got %s", got)
	}
}

func TestWithdrawalRecheckedAtApprovalTime(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedAccount(t, s, "0100101000001", domain.AccountActive, time.Now())
	postDeposit(t, s, "0100101000001", dec("500"))

	// Both initiations pass the advisory check against balance 500.
	w1, err := s.InitiateWithdrawal(ctx, maker, "0100101000001", dec("400"), nil)
	if err != nil {
		t.Fatalf("failed to initiate first withdrawal: %v", err)
	}
	w2, err := s.InitiateWithdrawal(ctx, maker, "0100101000001", dec("400"), nil)
	if err != nil {
		t.Fatalf("failed to initiate second withdrawal: %v", err)
	}

	if _, err := s.ApproveTransaction(ctx, checker, w1.ID, checkerCode(s)); err != nil {
		t.Fatalf("failed to approve first withdrawal: %v", err)
	}

	// The balance has since dropped to 100; the mandatory approval-time
	// re-check rejects the second withdrawal before any state change.
	_, err = s.ApproveTransaction(ctx, checker, w2.ID, checkerCode(s))
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds at approval, got %v", err)
	}

	if got := mustBalance(t, s, "0100101000001"); !got.Equal(dec("100")) {
		t.Fatalf("expected balance 100, got %s", got)
	}

	// The rejected-at-approval withdrawal is still pending, untouched.
	pendings, err := s.store.Get(ctx, store.PendingTransactions, store.Filter{"id": w2.ID})
	if err != nil || len(pendings) != 1 {
		t.Fatalf("expected second withdrawal to remain pending, got %d (err %v)", len(pendings), err)
	}
}

func TestWithdrawalFeeChargedAtApprovalRate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedAccount(t, s, "0100101000001", domain.AccountActive, time.Now())
	postDeposit(t, s, "0100101000001", dec("1000"))

	pending, err := s.InitiateWithdrawal(ctx, maker, "0100101000001", dec("200"), nil)
	if err != nil {
		t.Fatalf("failed to initiate withdrawal: %v", err)
	}

	// The fee rate current at approval applies, not the one at initiation.
	s.settings.WithdrawalFeeRate = dec("1")

	posted, err := s.ApproveTransaction(ctx, checker, pending.ID, checkerCode(s))
	if err != nil {
		t.Fatalf("failed to approve withdrawal: %v", err)
	}
	if !posted.Fee.Equal(dec("2")) {
		t.Fatalf("expected fee 2, got %s", posted.Fee)
	}

	// Balance debits amount plus fee: 1000 - 200 - 2.
	if got := mustBalance(t, s, "0100101000001"); !got.Equal(dec("798")) {
		t.Fatalf("expected balance 798, got %s", got)
	}
}

func TestAccountStatusPolicy(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.AccountStatus
		kind     domain.TransactionKind
		wantErr  error
	}{
		{"inactive blocks deposits", domain.AccountInactive, domain.KindDeposit, domain.ErrAccountInactive},
		{"inactive blocks withdrawals", domain.AccountInactive, domain.KindWithdrawal, domain.ErrAccountInactive},
		{"dormant allows deposits", domain.AccountDormant, domain.KindDeposit, nil},
		{"dormant blocks withdrawals", domain.AccountDormant, domain.KindWithdrawal, domain.ErrAccountDormant},
		{"non-debit allows deposits", domain.AccountNonDebit, domain.KindDeposit, nil},
		{"non-debit blocks withdrawals", domain.AccountNonDebit, domain.KindWithdrawal, domain.ErrNonDebitStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkAccountStatus(tt.status, tt.kind); !errors.Is(got, tt.wantErr) {
				t.Fatalf("checkAccountStatus(%s, %s) = %v, want %v", tt.status, tt.kind, got, tt.wantErr)
			}
		})
	}
}

func TestApproveRequiresAuthorization(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedAccount(t, s, "0100101000001", domain.AccountActive, time.Now())

	pending, err := s.InitiateDeposit(ctx, maker, "0100101000001", dec("100"), nil)
	if err != nil {
		t.Fatalf("failed to initiate deposit: %v", err)
	}

	// Cashiers cannot act as checkers.
	_, err = s.ApproveTransaction(ctx, maker, pending.ID, s.ApprovalCode(maker.Username))
	if !errors.Is(err, domain.ErrUnauthorizedRole) {
		t.Fatalf("expected unauthorized role, got %v", err)
	}

	// A wrong code is rejected.
	_, err = s.ApproveTransaction(ctx, checker, pending.ID, "000000")
	if !errors.Is(err, domain.ErrInvalidApprovalCode) {
		t.Fatalf("expected invalid approval code, got %v", err)
	}

	// A manager cannot approve their own initiation.
	selfMade, err := s.InitiateDeposit(ctx, checker, "0100101000001", dec("100"), nil)
	if err != nil {
		t.Fatalf("failed to initiate deposit as manager: %v", err)
	}
	_, err = s.ApproveTransaction(ctx, checker, selfMade.ID, checkerCode(s))
	if !errors.Is(err, domain.ErrSameMakerChecker) {
		t.Fatalf("expected maker-checker violation, got %v", err)
	}

	// Nothing was posted by any of the failed attempts.
	if got := mustBalance(t, s, "0100101000001"); !got.IsZero() {
		t.Fatalf("expected zero balance after failed approvals, got %s", got)
	}
}

func TestSecondApproveIsIdempotentNotFound(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedAccount(t, s, "0100101000001", domain.AccountActive, time.Now())

	pending, err := s.InitiateDeposit(ctx, maker, "0100101000001", dec("250"), nil)
	if err != nil {
		t.Fatalf("failed to initiate deposit: %v", err)
	}

	if _, err := s.ApproveTransaction(ctx, checker, pending.ID, checkerCode(s)); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}

	_, err = s.ApproveTransaction(ctx, checker, pending.ID, checkerCode(s))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second approve, got %v", err)
	}

	_, err = s.RejectTransaction(ctx, checker, pending.ID, "late")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on reject after approve, got %v", err)
	}

	// Exactly one posted record, no recovery item.
	posted, err := s.store.Get(ctx, store.PostedTransactions, store.Filter{"id": pending.ID})
	if err != nil || len(posted) != 1 {
		t.Fatalf("expected exactly one posted record, got %d (err %v)", len(posted), err)
	}
	items, err := s.ListRecoveryItems(ctx)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty recovery bin, got %d (err %v)", len(items), err)
	}
}

func TestConcurrentApprovesPostExactlyOnce(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedAccount(t, s, "0100101000001", domain.AccountActive, time.Now())

	pending, err := s.InitiateDeposit(ctx, maker, "0100101000001", dec("100"), nil)
	if err != nil {
		t.Fatalf("failed to initiate deposit: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ApproveTransaction(ctx, checker, pending.ID, checkerCode(s)); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful approve, got %d", successes)
	}
	if got := mustBalance(t, s, "0100101000001"); !got.Equal(dec("100")) {
		t.Fatalf("expected balance 100, got %s", got)
	}
}

func TestRejectCapturesSnapshotIntoRecovery(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedAccount(t, s, "0100101000001", domain.AccountActive, time.Now())
	postDeposit(t, s, "0100101000001", dec("500"))

	pending, err := s.InitiateWithdrawal(ctx, maker, "0100101000001", dec("200"), nil)
	if err != nil {
		t.Fatalf("failed to initiate withdrawal: %v", err)
	}

	item, err := s.RejectTransaction(ctx, checker, pending.ID, "duplicate")
	if err != nil {
		t.Fatalf("failed to reject: %v", err)
	}
	if item.Kind != domain.RecoverPendingTxn {
		t.Fatalf("expected kind pending_txn, got %s", item.Kind)
	}
	if item.Reason != "duplicate" {
		t.Fatalf("expected reason to be preserved, got %q", item.Reason)
	}

	var snapshot domain.PendingTransaction
	if err := decode(item.Payload, &snapshot); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if !snapshot.Amount.Equal(dec("200")) {
		t.Fatalf("expected snapshot amount 200, got %s", snapshot.Amount)
	}

	// The pending record is gone and the balance untouched.
	pendings, err := s.store.Get(ctx, store.PendingTransactions, store.Filter{"id": pending.ID})
	if err != nil || len(pendings) != 0 {
		t.Fatalf("expected pending record removed, got %d (err %v)", len(pendings), err)
	}
	if got := mustBalance(t, s, "0100101000001"); !got.Equal(dec("500")) {
		t.Fatalf("expected balance 500, got %s", got)
	}
}

func TestInitiateRejectsNonPositiveAmounts(t *testing.T) {
	s := newTestService(t)
	seedAccount(t, s, "0100101000001", domain.AccountActive, time.Now())

	for _, amount := range []decimal.Decimal{decimal.Zero, dec("-5")} {
		_, err := s.InitiateDeposit(context.Background(), maker, "0100101000001", amount, nil)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error for amount %s, got %v", amount, err)
		}
	}
}
