/**
 * @description
 * This package provides the client for the remote payment-processor
 * service. Calls run under the "paymentProcessorService" circuit breaker
 * and retry policy.
 *
 * Submission is the one remote write in the system, so every logical
 * submission carries an Idempotency-Key header generated once before the
 * retry loop and resent unchanged on each attempt; a retried request that
 * actually succeeded server-side can then be de-duplicated downstream.
 *
 * An empty 2xx body on submission is a PaymentProcessing failure: the
 * outcome of a financial operation cannot be assumed silently. On a status
 * query the same empty body simply means not-found.
 *
 * @dependencies
 * - bytes, context, encoding/json, net/http: Standard Go libraries.
 * - github.com/google/uuid: Idempotency key generation.
 * - pkg/resilience: Circuit breaker, retry, and fallback wrapper.
 * - internal/domain: PaymentResponse model and error taxonomy.
 */

package processorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/payflow/payment-consumer-service/internal/domain"
	"github.com/payflow/payment-consumer-service/pkg/resilience"
)

// ServiceName identifies this client's breaker and retry policy in the
// resilience registry.
const ServiceName = "paymentProcessorService"

// serviceLabel is the human-readable name carried by unavailability errors.
const serviceLabel = "Payment Processor"

// Client is a client for the payment-processor service.
type Client struct {
	baseURL    string
	basePath   string
	httpClient *http.Client
	registry   *resilience.Registry
}

// NewClient creates a new payment-processor client.
func NewClient(baseURL, basePath string, registry *resilience.Registry) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		basePath:   basePath,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		registry:   registry,
	}
}

// SubmitPayment posts a payment payload to the processor. The payload is
// validated by the orchestrator before invocation; this method only fails
// fast on missing required keys.
func (c *Client) SubmitPayment(ctx context.Context, payload map[string]any) (*domain.PaymentResponse, error) {
	if payload == nil {
		return nil, &domain.InvalidArgumentError{Msg: "payment payload cannot be nil"}
	}
	for _, key := range []string{"fromAccount", "toAccount", "amount"} {
		if v, ok := payload[key]; !ok || v == nil {
			return nil, &domain.InvalidArgumentError{Msg: fmt.Sprintf("%s is required", key)}
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment payload: %w", err)
	}

	// One key per logical submission, constant across retry attempts.
	idempotencyKey := uuid.NewString()
	requestURL := c.baseURL + c.basePath

	log.Printf("level=info component=processor_client op=submit from=%v to=%v amount=%v idempotency_key=%s",
		payload["fromAccount"], payload["toAccount"], payload["amount"], idempotencyKey)

	op := func(ctx context.Context) (*domain.PaymentResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create payment request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Idempotency-Key", idempotencyKey)

		respBody, err := c.do(req)
		if err != nil {
			return nil, err
		}
		if len(respBody) == 0 {
			// Transport succeeded; the ambiguity is resolved after Execute
			// so it is not retried and does not count against the breaker.
			return nil, nil
		}
		return decodePaymentResponse(respBody)
	}

	fallback := func(cause error) (*domain.PaymentResponse, error) {
		// The synthetic FAILED response exists only to keep the original
		// request context in the logs; it is never handed to callers.
		synthetic := domain.PaymentResponse{
			Status:        domain.PaymentStatusFailed,
			Message:       "Payment processing failed",
			FailureReason: "Payment processor service is currently unavailable. Please try again later.",
			Timestamp:     time.Now(),
		}
		if from, ok := payload["fromAccount"].(string); ok {
			synthetic.FromAccount = from
		}
		if to, ok := payload["toAccount"].(string); ok {
			synthetic.ToAccount = to
		}
		log.Printf("level=error component=processor_client op=submit outcome=fallback from=%s to=%s idempotency_key=%s err=%v",
			synthetic.FromAccount, synthetic.ToAccount, idempotencyKey, cause)

		return nil, &resilience.ServiceUnavailableError{
			Service: serviceLabel,
			Msg:     "failed to process payment",
			Cause:   cause,
		}
	}

	response, err := resilience.Execute(ctx, c.registry, ServiceName, op, fallback)
	if err != nil {
		return nil, err
	}
	if response == nil {
		// Ambiguous financial state: neither success nor failure of the
		// submission may be assumed silently.
		log.Printf("level=error component=processor_client op=submit idempotency_key=%s msg=\"empty response body on submission\"", idempotencyKey)
		return nil, &domain.PaymentProcessingError{Msg: "payment processor returned an empty response"}
	}
	return response, nil
}

// GetStatus fetches the current state of a payment by transaction ID. It
// returns (nil, nil) when the processor responds successfully with no
// body, meaning the transaction is unknown.
func (c *Client) GetStatus(ctx context.Context, transactionID string) (*domain.PaymentResponse, error) {
	if strings.TrimSpace(transactionID) == "" {
		return nil, &domain.InvalidArgumentError{Msg: "transaction ID cannot be blank"}
	}

	requestURL := c.baseURL + c.basePath + "/" + transactionID

	op := func(ctx context.Context) (*domain.PaymentResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create status request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		respBody, err := c.do(req)
		if err != nil {
			return nil, err
		}
		if len(respBody) == 0 {
			log.Printf("level=warn component=processor_client op=get_status transaction_id=%s msg=\"empty response body\"", transactionID)
			return nil, nil
		}
		return decodePaymentResponse(respBody)
	}

	fallback := func(cause error) (*domain.PaymentResponse, error) {
		log.Printf("level=error component=processor_client op=get_status transaction_id=%s outcome=fallback err=%v", transactionID, cause)
		return nil, &resilience.ServiceUnavailableError{
			Service: serviceLabel,
			Msg:     "failed to retrieve payment status",
			Cause:   cause,
		}
	}

	return resilience.Execute(ctx, c.registry, ServiceName, op, fallback)
}

// do executes one attempt and returns the response body. Non-2xx statuses
// are errors so they count against the breaker.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute payment processor request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read payment processor response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment processor returned status %d", resp.StatusCode)
	}
	return body, nil
}

func decodePaymentResponse(body []byte) (*domain.PaymentResponse, error) {
	var response domain.PaymentResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}
	if response.Timestamp.IsZero() {
		response.Timestamp = time.Now()
	}
	return &response, nil
}
