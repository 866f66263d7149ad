/**
 * @description
 * This file contains the core orchestration logic for the
 * payment-consumer-service. The `Service` struct coordinates the local
 * account store, the beneficiaries gateway, and the payment-processor
 * gateway to fulfill account lookups, beneficiary lookups, payment
 * submission, and payment-status queries.
 *
 * Key behaviors:
 * - processPayment runs a strictly ordered pipeline: structural
 *   validation, account validation, optional beneficiary validation,
 *   payload construction, submission.
 * - Beneficiary validation degrades gracefully: if the beneficiaries
 *   service is unavailable the payment proceeds without it. Only a
 *   resilience.ServiceUnavailableError from that lookup is swallowed;
 *   NotFound and business-rule failures always propagate.
 * - Payment lifecycle events are published to RabbitMQ best-effort.
 *
 * @dependencies
 * - context, errors, fmt, log, strings, time: Standard Go libraries.
 * - github.com/shopspring/decimal: Monetary comparisons.
 * - internal/domain, internal/store: Domain models and account access.
 * - pkg/rabbitmq, pkg/resilience: Event publishing and transport errors.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/payflow/payment-consumer-service/internal/domain"
	"github.com/payflow/payment-consumer-service/internal/store"
	"github.com/payflow/payment-consumer-service/pkg/rabbitmq"
	"github.com/payflow/payment-consumer-service/pkg/resilience"
)

// BeneficiaryGateway is the slice of the beneficiaries client the
// orchestrator depends on.
type BeneficiaryGateway interface {
	ListBeneficiaries(ctx context.Context, customerID, accountNumber string) ([]domain.Beneficiary, error)
	GetBeneficiary(ctx context.Context, beneficiaryID int64, customerID string) (*domain.Beneficiary, error)
}

// PaymentGateway is the slice of the payment-processor client the
// orchestrator depends on.
type PaymentGateway interface {
	SubmitPayment(ctx context.Context, payload map[string]any) (*domain.PaymentResponse, error)
	GetStatus(ctx context.Context, transactionID string) (*domain.PaymentResponse, error)
}

// RateLimiter consumes one unit from a fixed-window counter and reports
// the new count plus the seconds until the window resets.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the orchestration logic for payment operations.
type Service struct {
	accounts      store.Repository
	beneficiaries BeneficiaryGateway
	processor     PaymentGateway

	events         rabbitmq.Publisher
	eventsExchange string

	rateLimiter       RateLimiter
	submitLimitPerMin int
}

// NewService creates a new orchestration service instance.
func NewService(accounts store.Repository, beneficiaries BeneficiaryGateway, processor PaymentGateway, events rabbitmq.Publisher, eventsExchange string) *Service {
	return &Service{
		accounts:       accounts,
		beneficiaries:  beneficiaries,
		processor:      processor,
		events:         events,
		eventsExchange: eventsExchange,
	}
}

// SetPaymentRateLimiter enables the fixed-window submission limit per
// customer. A nil limiter or non-positive limit disables it.
func (s *Service) SetPaymentRateLimiter(limiter RateLimiter, perMinute int) {
	s.rateLimiter = limiter
	s.submitLimitPerMin = perMinute
}

// GetAccountDetails returns the account for a customer.
func (s *Service) GetAccountDetails(ctx context.Context, customerID string) (*domain.Account, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, &domain.InvalidArgumentError{Msg: "customer ID cannot be blank"}
	}

	account, err := s.accounts.FindAccountByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, &domain.NotFoundError{Msg: "Account not found for customer: " + customerID}
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return account, nil
}

// GetBeneficiaries returns the remote beneficiaries for a customer,
// optionally filtered by source account number.
func (s *Service) GetBeneficiaries(ctx context.Context, customerID, accountNumber string) ([]domain.Beneficiary, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, &domain.InvalidArgumentError{Msg: "customer ID cannot be blank"}
	}

	if _, err := s.GetAccountDetails(ctx, customerID); err != nil {
		return nil, err
	}

	beneficiaries, err := s.beneficiaries.ListBeneficiaries(ctx, customerID, accountNumber)
	if err != nil {
		return nil, err
	}
	if len(beneficiaries) == 0 {
		log.Printf("level=warn component=orchestrator op=get_beneficiaries customer_id=%s msg=\"no beneficiaries\"", customerID)
		return nil, &domain.NotFoundError{Msg: "No beneficiaries found for customer: " + customerID}
	}

	log.Printf("level=info component=orchestrator op=get_beneficiaries customer_id=%s count=%d", customerID, len(beneficiaries))
	return beneficiaries, nil
}

// ProcessPayment validates and submits a payment. It returns the
// processor's response unchanged, or exactly one of the taxonomy errors.
func (s *Service) ProcessPayment(ctx context.Context, req *domain.PaymentRequest) (*domain.PaymentResponse, error) {
	if req == nil {
		return nil, &domain.InvalidArgumentError{Msg: "payment request cannot be nil"}
	}

	// Step 1: structural validation. Client errors, never retried.
	if err := validatePaymentRequest(req); err != nil {
		return nil, err
	}

	log.Printf("level=info component=orchestrator op=process_payment customer_id=%s from=%s to=%s amount=%s",
		req.CustomerID, req.FromAccount, req.ToAccount, req.Amount.String())

	// Step 2: account validation against the local store.
	if err := s.validateAccount(ctx, req); err != nil {
		return nil, err
	}

	// Step 3: optional beneficiary validation with graceful degradation.
	if req.BeneficiaryID > 0 {
		if err := s.validateBeneficiary(ctx, req); err != nil {
			return nil, err
		}
	}

	if err := s.checkSubmissionRateLimit(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	// Step 4: build the downstream payload from validated fields.
	payload := buildProcessorPayload(req)

	// Step 5: submit; result or failure propagates unchanged.
	response, err := s.processor.SubmitPayment(ctx, payload)
	if err != nil {
		s.publishPaymentEvent(ctx, req, nil)
		return nil, err
	}

	log.Printf("level=info component=orchestrator op=process_payment customer_id=%s status=%s transaction_id=%s",
		req.CustomerID, response.Status, response.TransactionID)
	s.publishPaymentEvent(ctx, req, response)

	return response, nil
}

// GetPaymentStatus returns the processor's view of a payment.
func (s *Service) GetPaymentStatus(ctx context.Context, transactionID, customerID string) (*domain.PaymentResponse, error) {
	if strings.TrimSpace(transactionID) == "" {
		return nil, &domain.InvalidArgumentError{Msg: "transaction ID cannot be blank"}
	}
	if strings.TrimSpace(customerID) == "" {
		return nil, &domain.InvalidArgumentError{Msg: "customer ID cannot be blank"}
	}

	if _, err := s.GetAccountDetails(ctx, customerID); err != nil {
		return nil, err
	}

	response, err := s.processor.GetStatus(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, &domain.NotFoundError{Msg: "Payment not found for transaction ID: " + transactionID}
	}
	return response, nil
}

func validatePaymentRequest(req *domain.PaymentRequest) error {
	switch {
	case strings.TrimSpace(req.CustomerID) == "":
		return &domain.InvalidArgumentError{Msg: "customer ID is required"}
	case strings.TrimSpace(req.FromAccount) == "":
		return &domain.InvalidArgumentError{Msg: "from account is required"}
	case strings.TrimSpace(req.ToAccount) == "":
		return &domain.InvalidArgumentError{Msg: "to account is required"}
	case strings.TrimSpace(req.Currency) == "":
		return &domain.InvalidArgumentError{Msg: "currency is required"}
	case strings.TrimSpace(string(req.PaymentType)) == "":
		return &domain.InvalidArgumentError{Msg: "payment type is required"}
	case !req.Amount.IsPositive():
		return &domain.InvalidArgumentError{Msg: "amount must be greater than zero"}
	}
	return nil
}

func (s *Service) validateAccount(ctx context.Context, req *domain.PaymentRequest) error {
	account, err := s.accounts.FindAccountByCustomerID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return &domain.NotFoundError{Msg: "Account not found for customer: " + req.CustomerID}
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	if account.AccountNumber != req.FromAccount {
		return &domain.PaymentProcessingError{Msg: "From account does not belong to customer"}
	}
	if !strings.EqualFold(account.Status, domain.AccountStatusActive) {
		return &domain.PaymentProcessingError{Msg: "Account is not active"}
	}
	if account.Balance.LessThan(req.Amount) {
		return &domain.PaymentProcessingError{Msg: "Insufficient balance"}
	}
	return nil
}

// validateBeneficiary confirms the named beneficiary exists, matches the
// destination account, and is active. If the beneficiaries service itself
// is unavailable the check is skipped: a payment must not be blocked by an
// outage of an unrelated service. Only that one failure type is swallowed.
func (s *Service) validateBeneficiary(ctx context.Context, req *domain.PaymentRequest) error {
	beneficiary, err := s.beneficiaries.GetBeneficiary(ctx, req.BeneficiaryID, req.CustomerID)
	if err != nil {
		var unavailable *resilience.ServiceUnavailableError
		if errors.As(err, &unavailable) {
			log.Printf("level=warn component=orchestrator op=process_payment customer_id=%s beneficiary_id=%d msg=\"beneficiary validation skipped; service unavailable\" err=%v",
				req.CustomerID, req.BeneficiaryID, err)
			return nil
		}
		return err
	}

	if beneficiary == nil {
		return &domain.NotFoundError{Msg: fmt.Sprintf("Beneficiary not found with ID: %d", req.BeneficiaryID)}
	}
	if beneficiary.BeneficiaryAccountNumber != "" && beneficiary.BeneficiaryAccountNumber != req.ToAccount {
		return &domain.PaymentProcessingError{Msg: "Beneficiary account number does not match payment to account"}
	}
	if !strings.EqualFold(beneficiary.Status, domain.AccountStatusActive) {
		return &domain.PaymentProcessingError{Msg: "Beneficiary is not active"}
	}
	return nil
}

func (s *Service) checkSubmissionRateLimit(ctx context.Context, customerID string) error {
	if s.rateLimiter == nil || s.submitLimitPerMin <= 0 {
		return nil
	}
	count, retryAfter, err := s.rateLimiter.ConsumeRateLimit(ctx, "payment_submit", customerID, s.submitLimitPerMin, time.Minute)
	if err != nil {
		// Fail open: a limiter outage must not block payments.
		log.Printf("level=warn component=orchestrator op=process_payment customer_id=%s msg=\"rate limiter unavailable\" err=%v", customerID, err)
		return nil
	}
	if count > s.submitLimitPerMin {
		log.Printf("level=warn component=orchestrator op=process_payment customer_id=%s outcome=rate_limited count=%d retry_after=%d", customerID, count, retryAfter)
		return &domain.PaymentProcessingError{Msg: fmt.Sprintf("Too many payment submissions; retry in %d seconds", retryAfter)}
	}
	return nil
}

func buildProcessorPayload(req *domain.PaymentRequest) map[string]any {
	payload := map[string]any{
		"fromAccount": req.FromAccount,
		"toAccount":   req.ToAccount,
		"amount":      req.Amount,
		"currency":    req.Currency,
		"paymentType": string(req.PaymentType),
	}
	if req.Description != "" {
		payload["description"] = req.Description
	}
	return payload
}

// publishPaymentEvent emits a lifecycle event for a submission outcome.
// Publishing is best-effort; a nil response means the submission failed
// before the processor produced an authoritative record.
func (s *Service) publishPaymentEvent(ctx context.Context, req *domain.PaymentRequest, response *domain.PaymentResponse) {
	if s.events == nil || s.eventsExchange == "" {
		return
	}

	event := rabbitmq.PaymentEvent{
		EventID:     uuid.New(),
		CustomerID:  req.CustomerID,
		FromAccount: req.FromAccount,
		ToAccount:   req.ToAccount,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      string(domain.PaymentStatusFailed),
		Timestamp:   time.Now(),
	}
	routingKey := rabbitmq.RoutingKeyPaymentFailed
	if response != nil {
		event.TransactionID = response.TransactionID
		event.Status = string(response.Status)
		switch response.Status {
		case domain.PaymentStatusCompleted:
			routingKey = rabbitmq.RoutingKeyPaymentCompleted
		case domain.PaymentStatusFailed:
			routingKey = rabbitmq.RoutingKeyPaymentFailed
		default:
			routingKey = rabbitmq.RoutingKeyPaymentSubmitted
		}
	}

	if err := s.events.Publish(ctx, s.eventsExchange, routingKey, event); err != nil {
		log.Printf("level=warn component=orchestrator msg=\"payment event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}
