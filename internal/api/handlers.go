/**
 * @description
 * This file contains the HTTP handlers for the payment-consumer-service's
 * API endpoints. Handlers parse incoming requests, call the orchestration
 * service, and write the HTTP response; all error translation goes through
 * the shared envelope in errors.go.
 *
 * @dependencies
 * - encoding/json, log, net/http, strings: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain: Service logic and models.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/payflow/payment-consumer-service/internal/app"
	"github.com/payflow/payment-consumer-service/internal/domain"
)

// PaymentHandlers holds the orchestration service that handlers will use.
type PaymentHandlers struct {
	service *app.Service
}

// NewPaymentHandlers creates a new instance of PaymentHandlers.
func NewPaymentHandlers(service *app.Service) *PaymentHandlers {
	return &PaymentHandlers{service: service}
}

// GetAccountHandler handles GET /accounts/{customerId}.
func (h *PaymentHandlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	log.Printf("level=info component=api endpoint=get_account customer_id=%s", customerID)

	account, err := h.service.GetAccountDetails(r.Context(), customerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ListBeneficiariesHandler handles GET /beneficiaries?customerId=&accountNumber=.
func (h *PaymentHandlers) ListBeneficiariesHandler(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customerId")
	accountNumber := r.URL.Query().Get("accountNumber")
	log.Printf("level=info component=api endpoint=list_beneficiaries customer_id=%s account_number=%s", customerID, accountNumber)

	if strings.TrimSpace(customerID) == "" {
		respondError(w, r, &domain.InvalidArgumentError{Msg: "customerId query parameter is required"})
		return
	}

	beneficiaries, err := h.service.GetBeneficiaries(r.Context(), customerID, accountNumber)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, beneficiaries)
}

// ProcessPaymentHandler handles POST /payments.
func (h *PaymentHandlers) ProcessPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=process_payment outcome=reject reason=invalid_json err=%v", err)
		respondError(w, r, &domain.InvalidArgumentError{Msg: "invalid request body"})
		return
	}

	log.Printf("level=info component=api endpoint=process_payment customer_id=%s from=%s to=%s amount=%s",
		req.CustomerID, req.FromAccount, req.ToAccount, req.Amount.String())

	response, err := h.service.ProcessPayment(r.Context(), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, paymentResponseStatus(response), response)
}

// GetPaymentStatusHandler handles GET /payments/{transactionId}?customerId=.
func (h *PaymentHandlers) GetPaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")
	customerID := r.URL.Query().Get("customerId")
	log.Printf("level=info component=api endpoint=get_payment_status transaction_id=%s customer_id=%s", transactionID, customerID)

	response, err := h.service.GetPaymentStatus(r.Context(), transactionID, customerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// paymentResponseStatus maps the processor's payment status onto the
// inbound HTTP status: created for completed payments, bad request for
// definitive failures, accepted for anything still in flight.
func paymentResponseStatus(response *domain.PaymentResponse) int {
	status := string(response.Status)
	switch {
	case strings.Contains(status, "COMPLETED"):
		return http.StatusCreated
	case strings.Contains(status, "FAILED"),
		strings.Contains(status, "FRAUD"),
		strings.Contains(status, "INSUFFICIENT"):
		return http.StatusBadRequest
	default:
		return http.StatusAccepted
	}
}
