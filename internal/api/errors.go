/**
 * @description
 * This file centralizes the translation of service-layer errors into the
 * HTTP error envelope. Every failure response carries an error category
 * label, a human-readable message, the originating request path, and the
 * numeric status code; internal error detail is never echoed to callers.
 *
 * @dependencies
 * - encoding/json, errors, net/http, time: Standard Go libraries.
 * - internal/domain, pkg/resilience: The error taxonomy being mapped.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/payflow/payment-consumer-service/internal/domain"
	"github.com/payflow/payment-consumer-service/pkg/resilience"
)

// ErrorResponse is the envelope returned for every failed request.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func writeErrorEnvelope(w http.ResponseWriter, r *http.Request, status int, label, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:     label,
		Message:   message,
		Path:      r.URL.Path,
		Status:    status,
		Timestamp: time.Now(),
	})
}

// respondError maps a service-layer error onto the envelope. The breaker
// specialization is checked before the general unavailability type since
// fallbacks carry it as the underlying cause.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidArg   *domain.InvalidArgumentError
		notFound     *domain.NotFoundError
		procErr      *domain.PaymentProcessingError
		notPermitted *resilience.CallNotPermittedError
		unavailable  *resilience.ServiceUnavailableError
	)

	switch {
	case errors.As(err, &invalidArg):
		log.Printf("level=warn component=api path=%s outcome=invalid_argument msg=%q", r.URL.Path, invalidArg.Msg)
		writeErrorEnvelope(w, r, http.StatusBadRequest, "Invalid Request", invalidArg.Msg)
	case errors.As(err, &notFound):
		log.Printf("level=warn component=api path=%s outcome=not_found msg=%q", r.URL.Path, notFound.Msg)
		writeErrorEnvelope(w, r, http.StatusNotFound, "Resource Not Found", notFound.Msg)
	case errors.As(err, &procErr):
		log.Printf("level=warn component=api path=%s outcome=payment_processing_error msg=%q", r.URL.Path, procErr.Msg)
		writeErrorEnvelope(w, r, http.StatusBadRequest, "Payment Processing Error", procErr.Msg)
	case errors.As(err, &notPermitted):
		log.Printf("level=error component=api path=%s outcome=circuit_open service=%s", r.URL.Path, notPermitted.Service)
		writeErrorEnvelope(w, r, http.StatusServiceUnavailable, "Service Circuit Breaker Open",
			"The service is temporarily unavailable due to multiple failures. Please try again later.")
	case errors.As(err, &unavailable):
		log.Printf("level=error component=api path=%s outcome=service_unavailable service=%s err=%v", r.URL.Path, unavailable.Service, err)
		writeErrorEnvelope(w, r, http.StatusServiceUnavailable, "Service Unavailable",
			fmt.Sprintf("%s service is currently unavailable. Please try again later.", unavailable.Service))
	case errors.Is(err, resilience.ErrCallTimeout):
		log.Printf("level=error component=api path=%s outcome=timeout err=%v", r.URL.Path, err)
		writeErrorEnvelope(w, r, http.StatusRequestTimeout, "Request Timeout",
			"The request timed out. Please try again later.")
	default:
		log.Printf("level=error component=api path=%s outcome=internal_error err=%v", r.URL.Path, err)
		writeErrorEnvelope(w, r, http.StatusInternalServerError, "Internal Server Error",
			"An unexpected error occurred")
	}
}
