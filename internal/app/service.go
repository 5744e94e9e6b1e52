/**
 * @description
 * This file contains the core service for the transaction and loan approval
 * ledger. The `Service` struct orchestrates the maker-checker state machines,
 * balance derivation, account-number minting, the recovery store and the
 * dormancy sweep, coordinating between the persistence abstraction, the
 * approval-code engine and the message broker.
 *
 * Key features:
 * - Codes against the `store.Store` interface once; the document-database and
 *   flat-file backends are interchangeable underneath it.
 * - Never holds an in-process lock across a persistence call; atomicity comes
 *   from the store's atomic get-and-delete and atomic increment.
 * - Publishes events and notifications strictly after the ledger commit,
 *   fire-and-forget.
 *
 * @dependencies
 * - context, encoding/json, fmt, log/slog, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - github.com/shopspring/decimal: For money arithmetic.
 * - internal/approval, internal/config, internal/domain, internal/store, pkg/rabbitmq.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodalor/smBank-sub000/internal/approval"
	"github.com/hodalor/smBank-sub000/internal/config"
	"github.com/hodalor/smBank-sub000/internal/domain"
	"github.com/hodalor/smBank-sub000/internal/store"
	"github.com/hodalor/smBank-sub000/pkg/rabbitmq"
)

// Settings carries the institution configuration the core consumes: identity
// codes for account minting, fee/interest rates, and the dormancy threshold.
type Settings struct {
	BankCode         string
	BranchCodes      []string
	AccountTypeCodes []string

	// Rates are percentages.
	WithdrawalFeeRate     decimal.Decimal
	LoanServiceFeeRate    decimal.Decimal
	LoanAdminFeeRate      decimal.Decimal
	LoanCommitmentFeeRate decimal.Decimal

	DormancyThreshold time.Duration
	EventExchange     string
	NotificationQueue string
}

// SettingsFromConfig converts the viper-backed configuration into core
// settings.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		BankCode:              cfg.BankCode,
		BranchCodes:           cfg.BranchCodes,
		AccountTypeCodes:      cfg.AccountTypeCodes,
		WithdrawalFeeRate:     decimal.NewFromFloat(cfg.WithdrawalFeePercent),
		LoanServiceFeeRate:    decimal.NewFromFloat(cfg.LoanServiceFeePercent),
		LoanAdminFeeRate:      decimal.NewFromFloat(cfg.LoanAdminFeePercent),
		LoanCommitmentFeeRate: decimal.NewFromFloat(cfg.LoanCommitmentFeePercent),
		DormancyThreshold:     time.Duration(cfg.DormancyThresholdDays) * 24 * time.Hour,
		EventExchange:         cfg.LedgerEventExchange,
		NotificationQueue:     cfg.NotificationQueue,
	}
}

// Service provides the core business logic for the approval ledger.
type Service struct {
	store    store.Store
	codes    *approval.Engine
	events   rabbitmq.Publisher
	notifier NotificationSender
	logger   *slog.Logger
	settings Settings

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewService creates a new ledger service instance.
func NewService(st store.Store, codes *approval.Engine, events rabbitmq.Publisher, notifier NotificationSender, logger *slog.Logger, settings Settings) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		codes:    codes,
		events:   events,
		notifier: notifier,
		logger:   logger,
		settings: settings,
		now:      time.Now,
	}
}

// ApprovalCode returns the acting approver's code for today. The surrounding
// platform shows it to them out-of-band ("My Account"); it is never stored.
func (s *Service) ApprovalCode(actor string) string {
	return s.codes.Code(actor, s.now())
}

// VerifyApprovalCode checks a submitted code against today's and yesterday's
// UTC codes for the actor.
func (s *Service) VerifyApprovalCode(actor, code string) bool {
	return s.codes.Verify(actor, code)
}

// authorizeChecker runs the shared checker-side gate: an approver role, a
// valid approval code, and a maker distinct from the checker.
func (s *Service) authorizeChecker(actor domain.Actor, code, initiator string) error {
	if !actor.Role.CanApprove() {
		return domain.ErrUnauthorizedRole
	}
	if !s.codes.Verify(actor.Username, code) {
		return domain.ErrInvalidApprovalCode
	}
	if actor.Username == initiator {
		return domain.ErrSameMakerChecker
	}
	return nil
}

// getOne fetches a single document by filter and decodes it into out.
func (s *Service) getOne(ctx context.Context, collection string, f store.Filter, out any) error {
	docs, err := s.store.Get(ctx, collection, f)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	if len(docs) == 0 {
		return domain.ErrNotFound
	}
	if err := json.Unmarshal(docs[0], out); err != nil {
		return fmt.Errorf("failed to decode %s document: %w", collection, err)
	}
	return nil
}

// putDoc encodes an entity and upserts it.
func (s *Service) putDoc(ctx context.Context, collection, id string, entity any) error {
	doc, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", collection, err)
	}
	if err := s.store.Put(ctx, collection, id, doc); err != nil {
		return fmt.Errorf("failed to store %s/%s: %w", collection, id, err)
	}
	return nil
}

// publishEvent emits a ledger event post-commit. Failures are logged and
// never surfaced to the caller.
func (s *Service) publishEvent(ctx context.Context, routingKey string, event domain.LedgerEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, s.settings.EventExchange, routingKey, event); err != nil {
		s.logger.Warn("event publish failed", "routing_key", routingKey, "entity_id", event.EntityID, "error", err)
	}
}

func newID() string {
	return uuid.New().String()
}

// decode unmarshals a stored document into a typed entity.
func decode(doc []byte, out any) error {
	if err := json.Unmarshal(doc, out); err != nil {
		return fmt.Errorf("failed to decode stored document: %w", err)
	}
	return nil
}

// mapDeleteErr translates the store's not-found into the domain's: a missing
// record means a concurrent caller already consumed it, which is an
// idempotent no-effect failure, not a fault.
func mapDeleteErr(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("failed to remove %s: %w", what, err)
}
