package app

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hodalor/smBank-sub000/internal/domain"
)

func TestNextAccountNumberFormat(t *testing.T) {
	s := newTestService(t)

	number, err := s.NextAccountNumber(context.Background(), "002", "01")
	if err != nil {
		t.Fatalf("failed to mint account number: %v", err)
	}
	if !regexp.MustCompile(`^\d{13}$`).MatchString(number) {
		t.Fatalf("expected 13 digits, got %q", number)
	}
	// bank 01 + branch 002 + type 01 + serial 000001
	if number != "0100201000001" {
		t.Fatalf("unexpected account number %q", number)
	}
}

func TestNextAccountNumberFallsBackToFirstConfiguredCodes(t *testing.T) {
	s := newTestService(t)

	number, err := s.NextAccountNumber(context.Background(), "999", "zz")
	if err != nil {
		t.Fatalf("failed to mint account number: %v", err)
	}
	if !strings.HasPrefix(number, "0100101") {
		t.Fatalf("expected fallback to branch 001 and type 01, got %q", number)
	}
}

func TestConcurrentMintingNeverRepeatsSerials(t *testing.T) {
	s := newTestService(t)

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := s.NextAccountNumber(context.Background(), "001", "01")
			if err != nil {
				t.Errorf("failed to mint account number: %v", err)
				return
			}
			mu.Lock()
			if seen[number] {
				t.Errorf("duplicate account number %q", number)
			}
			seen[number] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
}

func TestOpenAccountCreatesClientAndActiveAccount(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	client := domain.Client{FullName: "Yaw Darko", Phone: "0244000009", NationalID: "GHA-000000009"}
	account, err := s.OpenAccount(ctx, maker, client, "001", "02", checker.Username)
	if err != nil {
		t.Fatalf("failed to open account: %v", err)
	}
	if account.Status != domain.AccountActive {
		t.Fatalf("expected active status, got %s", account.Status)
	}
	if account.Manager != checker.Username {
		t.Fatalf("expected manager set, got %q", account.Manager)
	}

	loaded, err := s.getAccount(ctx, account.AccountNumber)
	if err != nil {
		t.Fatalf("failed to load account: %v", err)
	}
	if loaded.TypeCode != "02" {
		t.Fatalf("expected type 02, got %q", loaded.TypeCode)
	}
}

func TestOpenAccountRequiresClientName(t *testing.T) {
	s := newTestService(t)

	_, err := s.OpenAccount(context.Background(), maker, domain.Client{FullName: "  "}, "001", "01", "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestChangeAccountStatusAppendsHistory(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedAccount(t, s, "0100101000001", domain.AccountActive, time.Now())

	if err := s.ChangeAccountStatus(ctx, checker, "0100101000001", domain.AccountNonDebit, "court order"); err != nil {
		t.Fatalf("failed to change status: %v", err)
	}
	// Same-status transitions are no-ops, not duplicate history entries.
	if err := s.ChangeAccountStatus(ctx, checker, "0100101000001", domain.AccountNonDebit, "again"); err != nil {
		t.Fatalf("failed on repeat change: %v", err)
	}

	account, err := s.getAccount(ctx, "0100101000001")
	if err != nil {
		t.Fatalf("failed to load account: %v", err)
	}
	if account.Status != domain.AccountNonDebit {
		t.Fatalf("expected non_debit, got %s", account.Status)
	}
	if len(account.StatusHistory) != 1 {
		t.Fatalf("expected one history entry, got %d", len(account.StatusHistory))
	}
	change := account.StatusHistory[0]
	if change.From != domain.AccountActive || change.To != domain.AccountNonDebit || change.By != checker.Username || change.Reason != "court order" {
		t.Fatalf("unexpected history entry %+v", change)
	}
}

func TestAssignAccountManagerAppendsHistory(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedAccount(t, s, "0100101000001", domain.AccountActive, time.Now())

	if err := s.AssignAccountManager(ctx, checker, "0100101000001", "mgr.adwoa"); err != nil {
		t.Fatalf("failed to assign manager: %v", err)
	}
	if err := s.AssignAccountManager(ctx, checker, "0100101000001", "mgr.yaw"); err != nil {
		t.Fatalf("failed to reassign manager: %v", err)
	}

	account, err := s.getAccount(ctx, "0100101000001")
	if err != nil {
		t.Fatalf("failed to load account: %v", err)
	}
	if account.Manager != "mgr.yaw" {
		t.Fatalf("expected manager mgr.yaw, got %q", account.Manager)
	}
	if len(account.ManagerHistory) != 2 {
		t.Fatalf("expected two history entries, got %d", len(account.ManagerHistory))
	}
	if account.ManagerHistory[1].From != "mgr.adwoa" {
		t.Fatalf("expected prior manager recorded, got %+v", account.ManagerHistory[1])
	}
}

func TestDeleteClientCapturesIntoRecovery(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	client := domain.Client{FullName: "Yaw Darko", Phone: "0244000009"}
	account, err := s.OpenAccount(ctx, maker, client, "001", "01", "")
	if err != nil {
		t.Fatalf("failed to open account: %v", err)
	}

	item, err := s.DeleteClient(ctx, checker, account.AccountNumber, "merged records")
	if err != nil {
		t.Fatalf("failed to delete client: %v", err)
	}
	if item.Kind != domain.RecoverClient {
		t.Fatalf("expected kind client, got %s", item.Kind)
	}

	if _, err := s.DeleteClient(ctx, checker, account.AccountNumber, "again"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	if err := s.Restore(ctx, checker, item.ID); err != nil {
		t.Fatalf("failed to restore client: %v", err)
	}
	if _, err := s.DeleteClient(ctx, checker, account.AccountNumber, "restored then removed"); err != nil {
		t.Fatalf("expected client back after restore: %v", err)
	}
}
