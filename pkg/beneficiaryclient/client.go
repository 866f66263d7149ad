/**
 * @description
 * This package provides the client for the remote beneficiaries service.
 * Every call runs under the "beneficiariesService" circuit breaker and
 * retry policy; when the breaker is open or retries are exhausted the
 * fallback surfaces a ServiceUnavailableError naming "Beneficiaries".
 *
 * A successful response with an empty body is not a failure: list calls
 * yield an empty slice and by-id calls yield not-found. Only transport
 * problems (network errors, non-2xx statuses, timeouts) count against the
 * breaker.
 *
 * @dependencies
 * - context, encoding/json, net/http, net/url: Standard Go libraries.
 * - pkg/resilience: Circuit breaker, retry, and fallback wrapper.
 * - internal/domain: Beneficiary model and error taxonomy.
 */

package beneficiaryclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/payflow/payment-consumer-service/internal/domain"
	"github.com/payflow/payment-consumer-service/pkg/resilience"
)

// ServiceName identifies this client's breaker and retry policy in the
// resilience registry.
const ServiceName = "beneficiariesService"

// serviceLabel is the human-readable name carried by unavailability errors.
const serviceLabel = "Beneficiaries"

// Client is a client for the beneficiaries service.
type Client struct {
	baseURL    string
	basePath   string
	httpClient *http.Client
	registry   *resilience.Registry
}

// NewClient creates a new beneficiaries service client. The HTTP client
// carries a generous outer timeout; the per-attempt bound comes from the
// resilience policy's call timeout via the request context.
func NewClient(baseURL, basePath string, registry *resilience.Registry) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		basePath:   basePath,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		registry:   registry,
	}
}

// ListBeneficiaries fetches the beneficiaries for a customer, optionally
// filtered by source account number.
func (c *Client) ListBeneficiaries(ctx context.Context, customerID, accountNumber string) ([]domain.Beneficiary, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, &domain.InvalidArgumentError{Msg: "customer ID cannot be blank"}
	}

	query := url.Values{}
	query.Set("customerId", customerID)
	if strings.TrimSpace(accountNumber) != "" {
		query.Set("accountNumber", accountNumber)
	}
	requestURL := c.baseURL + c.basePath + "?" + query.Encode()

	op := func(ctx context.Context) ([]domain.Beneficiary, error) {
		body, err := c.get(ctx, requestURL)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			log.Printf("level=warn component=beneficiary_client op=list customer_id=%s msg=\"empty response body\"", customerID)
			return []domain.Beneficiary{}, nil
		}
		var beneficiaries []domain.Beneficiary
		if err := json.Unmarshal(body, &beneficiaries); err != nil {
			return nil, fmt.Errorf("failed to decode beneficiaries response: %w", err)
		}
		if beneficiaries == nil {
			beneficiaries = []domain.Beneficiary{}
		}
		return beneficiaries, nil
	}

	fallback := func(cause error) ([]domain.Beneficiary, error) {
		log.Printf("level=error component=beneficiary_client op=list customer_id=%s outcome=fallback err=%v", customerID, cause)
		return nil, &resilience.ServiceUnavailableError{
			Service: serviceLabel,
			Msg:     "failed to retrieve beneficiaries",
			Cause:   cause,
		}
	}

	return resilience.Execute(ctx, c.registry, ServiceName, op, fallback)
}

// GetBeneficiary fetches a single beneficiary by ID. It returns (nil, nil)
// when the remote service responds successfully with no body, which means
// the beneficiary does not exist.
func (c *Client) GetBeneficiary(ctx context.Context, beneficiaryID int64, customerID string) (*domain.Beneficiary, error) {
	if beneficiaryID <= 0 {
		return nil, &domain.InvalidArgumentError{Msg: "beneficiary ID must be positive"}
	}
	if strings.TrimSpace(customerID) == "" {
		return nil, &domain.InvalidArgumentError{Msg: "customer ID cannot be blank"}
	}

	query := url.Values{}
	query.Set("customerId", customerID)
	requestURL := c.baseURL + c.basePath + "/" + strconv.FormatInt(beneficiaryID, 10) + "?" + query.Encode()

	op := func(ctx context.Context) (*domain.Beneficiary, error) {
		body, err := c.get(ctx, requestURL)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			log.Printf("level=warn component=beneficiary_client op=get beneficiary_id=%d msg=\"empty response body\"", beneficiaryID)
			return nil, nil
		}
		var beneficiary domain.Beneficiary
		if err := json.Unmarshal(body, &beneficiary); err != nil {
			return nil, fmt.Errorf("failed to decode beneficiary response: %w", err)
		}
		return &beneficiary, nil
	}

	fallback := func(cause error) (*domain.Beneficiary, error) {
		log.Printf("level=error component=beneficiary_client op=get beneficiary_id=%d outcome=fallback err=%v", beneficiaryID, cause)
		return nil, &resilience.ServiceUnavailableError{
			Service: serviceLabel,
			Msg:     "failed to retrieve beneficiary",
			Cause:   cause,
		}
	}

	return resilience.Execute(ctx, c.registry, ServiceName, op, fallback)
}

// get performs one GET attempt and returns the response body. Non-2xx
// statuses are errors so they count against the breaker.
func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create beneficiaries request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute beneficiaries request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read beneficiaries response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("beneficiaries service returned status %d", resp.StatusCode)
	}
	return body, nil
}
