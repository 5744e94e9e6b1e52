/**
 * @description
 * This file sets up the HTTP router for the ledger service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies middleware for logging, panic recovery, CORS and authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// LedgerRoutes creates and returns the router for the ledger service.
func LedgerRoutes(h *LedgerHandlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		// Savings ledger.
		r.Post("/transactions/deposit", h.DepositHandler)
		r.Post("/transactions/withdrawal", h.WithdrawalHandler)
		r.Post("/transactions/{id}/approve", h.ApproveTransactionHandler)
		r.Post("/transactions/{id}/reject", h.RejectTransactionHandler)
		r.Get("/accounts/{number}/balance", h.BalanceHandler)
		r.Post("/accounts/number", h.MintAccountNumberHandler)

		// Loans and repayments.
		r.Post("/loans", h.CreateLoanHandler)
		r.Post("/loans/{id}/approve", h.ApproveLoanHandler)
		r.Post("/loans/{id}/reject", h.RejectLoanHandler)
		r.Get("/loans/{id}/outstanding", h.LoanOutstandingHandler)
		r.Post("/repayments", h.InitiateRepaymentHandler)
		r.Post("/repayments/{id}/approve", h.ApproveRepaymentHandler)
		r.Post("/repayments/{id}/reject", h.RejectRepaymentHandler)

		// Recovery store.
		r.Get("/recovery", h.ListRecoveryHandler)
		r.Post("/recovery/{id}/restore", h.RestoreRecoveryHandler)
		r.Delete("/recovery/{id}", h.PurgeRecoveryHandler)

		// The authenticated actor's daily approval code ("My Account").
		r.Get("/approval-code", h.ApprovalCodeHandler)
	})

	return r
}
