/**
 * @description
 * This file implements the dormancy sweep: a background pass that moves
 * long-inactive Active accounts to Dormant, attributed to "system" in the
 * status history. Each account is a read-then-conditionally-write on its
 * own, so accounts are processed independently and a single failure does
 * not abort the pass.
 *
 * The Sweeper wraps the pass in a cron schedule and also runs it once at
 * startup.
 *
 * @dependencies
 * - github.com/robfig/cron/v3: Cron scheduler with panic recovery.
 */

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hodalor/smBank-sub000/internal/domain"
	"github.com/hodalor/smBank-sub000/internal/store"
)

// systemActor attributes sweep-driven status changes.
const systemActor = "system"

// SweepDormantAccounts transitions every Active account whose last posted
// transaction (or creation, if it has none) is older than the configured
// threshold. It returns how many accounts went dormant.
func (s *Service) SweepDormantAccounts(ctx context.Context) (int, error) {
	docs, err := s.store.Get(ctx, store.Accounts, store.Filter{"status": string(domain.AccountActive)})
	if err != nil {
		return 0, err
	}

	swept := 0
	now := s.now()
	for _, doc := range docs {
		var account domain.Account
		if err := decode(doc, &account); err != nil {
			s.logger.Warn("skipping undecodable account during sweep", "error", err)
			continue
		}

		lastActivity, err := s.lastActivity(ctx, account)
		if err != nil {
			s.logger.Warn("failed to resolve last activity", "account", account.AccountNumber, "error", err)
			continue
		}
		if now.Sub(lastActivity) < s.settings.DormancyThreshold {
			continue
		}

		account.StatusHistory = append(account.StatusHistory, domain.StatusChange{
			From:      account.Status,
			To:        domain.AccountDormant,
			By:        systemActor,
			Reason:    "no activity beyond dormancy threshold",
			ChangedAt: now,
		})
		account.Status = domain.AccountDormant
		if err := s.putDoc(ctx, store.Accounts, account.AccountNumber, account); err != nil {
			s.logger.Warn("failed to mark account dormant", "account", account.AccountNumber, "error", err)
			continue
		}
		swept++

		s.publishEvent(ctx, domain.EventAccountDormant, domain.LedgerEvent{
			Kind:          string(domain.AccountDormant),
			EntityID:      account.AccountNumber,
			AccountNumber: account.AccountNumber,
			Actor:         systemActor,
			OccurredAt:    now,
		})
	}
	return swept, nil
}

// lastActivity returns the newest posted-transaction timestamp for the
// account, or its creation time when it has no postings.
func (s *Service) lastActivity(ctx context.Context, account domain.Account) (time.Time, error) {
	docs, err := s.store.Get(ctx, store.PostedTransactions, store.Filter{"account_number": account.AccountNumber})
	if err != nil {
		return time.Time{}, err
	}

	last := account.CreatedAt
	for _, doc := range docs {
		var txn domain.PostedTransaction
		if err := decode(doc, &txn); err != nil {
			return time.Time{}, err
		}
		if txn.ApprovedAt.After(last) {
			last = txn.ApprovedAt
		}
	}
	return last, nil
}

// Sweeper schedules the dormancy pass.
type Sweeper struct {
	cron     *cron.Cron
	service  *Service
	logger   *slog.Logger
	schedule string
}

// NewSweeper creates a sweeper with the given cron schedule expression.
func NewSweeper(service *Service, logger *slog.Logger, schedule string) *Sweeper {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Sweeper{
		cron:     c,
		service:  service,
		logger:   logger,
		schedule: schedule,
	}
}

// Start runs one sweep immediately, then registers the scheduled job and
// starts the cron scheduler.
func (sw *Sweeper) Start(ctx context.Context) {
	sw.run(ctx)

	if _, err := sw.cron.AddFunc(sw.schedule, func() { sw.run(context.Background()) }); err != nil {
		sw.logger.Error("failed to schedule dormancy sweep", "schedule", sw.schedule, "error", err)
		return
	}
	sw.logger.Info("scheduled dormancy sweep", "schedule", sw.schedule)
	sw.cron.Start()
}

func (sw *Sweeper) run(ctx context.Context) {
	swept, err := sw.service.SweepDormantAccounts(ctx)
	if err != nil {
		sw.logger.Error("dormancy sweep failed", "error", err)
		return
	}
	sw.logger.Info("dormancy sweep finished", "accounts_marked_dormant", swept)
}

// Stop gracefully stops the cron scheduler.
func (sw *Sweeper) Stop() context.Context {
	return sw.cron.Stop()
}
