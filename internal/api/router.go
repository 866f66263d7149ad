/**
 * @description
 * This file sets up the HTTP router for the payment-consumer-service. It
 * defines the API endpoints, associates them with their handlers, and
 * applies the standard middleware stack.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ConsumerRoutes creates and returns a new router for the payment
// consumer API.
func ConsumerRoutes(h *PaymentHandlers) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Payment Consumer Service is running"))
	})

	r.Get("/accounts/{customerId}", h.GetAccountHandler)
	r.Get("/beneficiaries", h.ListBeneficiariesHandler)
	r.Post("/payments", h.ProcessPaymentHandler)
	r.Get("/payments/{transactionId}", h.GetPaymentStatusHandler)

	return r
}
