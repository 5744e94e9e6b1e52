/**
 * @description
 * This is the main entry point for the ledger service. It loads the
 * configuration, selects the persistence backend (the document database
 * when reachable, the flat-file store otherwise), wires the approval-code
 * engine, event producer and notifier into the application service, starts
 * the dormancy sweeper and the HTTP server, and shuts everything down
 * gracefully on SIGINT/SIGTERM.
 *
 * The backend fallback happens only here: every component below this file
 * codes against the store interface and never learns which backend is
 * active.
 */

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hodalor/smBank-sub000/internal/api"
	"github.com/hodalor/smBank-sub000/internal/app"
	"github.com/hodalor/smBank-sub000/internal/approval"
	"github.com/hodalor/smBank-sub000/internal/config"
	"github.com/hodalor/smBank-sub000/internal/store"
	"github.com/hodalor/smBank-sub000/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	st := openStore(ctx, cfg, logger)
	defer st.Close()

	// Event producer, with a no-op fallback so a broker outage never blocks
	// the ledger.
	var events rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.LedgerEventExchange)
		if err != nil {
			logger.Warn("rabbitmq unavailable; events and notifications disabled", "error", err)
			events = &rabbitmq.NopPublisher{}
		} else {
			events = producer
		}
	} else {
		events = &rabbitmq.NopPublisher{}
	}
	defer events.Close()

	codes := approval.NewEngine(cfg.ApprovalCodeSecret)
	settings := app.SettingsFromConfig(cfg)
	notifier := app.NewQueueNotifier(events, cfg.LedgerEventExchange, cfg.NotificationQueue)
	service := app.NewService(st, codes, events, notifier, logger, settings)

	// Dormancy sweep: once at startup, then on the configured schedule.
	sweeper := app.NewSweeper(service, logger, cfg.DormancySweepSchedule)
	sweeper.Start(ctx)

	handlers := api.NewLedgerHandlers(service)
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: api.LedgerRoutes(handlers, cfg.JWTSecret),
	}

	go func() {
		logger.Info("ledger service listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal to gracefully shut down.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received")
	stopCtx := sweeper.Stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("ledger service stopped")
}

// openStore connects to the document database, falling back to the
// flat-file store when it is unreachable. The core contract is identical
// either way.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) store.Store {
	if cfg.DatabaseURL != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(pingCtx, cfg.DatabaseURL)
		if err == nil {
			if err = pool.Ping(pingCtx); err == nil {
				docStore, schemaErr := store.NewDocumentStore(pingCtx, pool)
				if schemaErr == nil {
					logger.Info("using document store backend")
					return docStore
				}
				err = schemaErr
			}
			if err != nil {
				pool.Close()
			}
		}
		logger.Warn("document store unreachable; falling back to file store", "error", err)
	}

	fileStore, err := store.NewFileStore(cfg.FileStoreDir)
	if err != nil {
		logger.Error("failed to open file store", "dir", cfg.FileStoreDir, "error", err)
		os.Exit(1)
	}
	logger.Info("using file store backend", "dir", cfg.FileStoreDir)
	return fileStore
}
