package beneficiaryclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/payflow/payment-consumer-service/internal/domain"
	"github.com/payflow/payment-consumer-service/pkg/resilience"
)

func newTestClient(serverURL string) *Client {
	reg := resilience.NewRegistry()
	reg.Configure(ServiceName, resilience.Policy{
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
		CallTimeout: time.Second,
	})
	return NewClient(serverURL, "/api/v1/beneficiaries", reg)
}

func TestListBeneficiariesDecodesRemoteList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/beneficiaries" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("customerId"); got != "CUST001" {
			t.Errorf("unexpected customerId: %q", got)
		}
		if got := r.URL.Query().Get("accountNumber"); got != "ACC001" {
			t.Errorf("unexpected accountNumber: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"customerId":"CUST001","beneficiaryName":"Acme Corp","beneficiaryAccountNumber":"ACC999","status":"ACTIVE"}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	beneficiaries, err := client.ListBeneficiaries(context.Background(), "CUST001", "ACC001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(beneficiaries) != 1 || beneficiaries[0].BeneficiaryName != "Acme Corp" {
		t.Fatalf("unexpected beneficiaries: %+v", beneficiaries)
	}
}

func TestListBeneficiariesEmptyBodyMeansEmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	beneficiaries, err := client.ListBeneficiaries(context.Background(), "CUST001", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if beneficiaries == nil || len(beneficiaries) != 0 {
		t.Fatalf("expected empty slice, got %+v", beneficiaries)
	}
}

func TestListBeneficiariesRetriesThenFallsBack(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ListBeneficiaries(context.Background(), "CUST001", "")

	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	var unavailable *resilience.ServiceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ServiceUnavailableError, got %v", err)
	}
	if unavailable.Service != "Beneficiaries" {
		t.Fatalf("unexpected service label: %q", unavailable.Service)
	}
}

func TestListBeneficiariesBlankCustomer(t *testing.T) {
	client := newTestClient("http://localhost:0")

	_, err := client.ListBeneficiaries(context.Background(), " ", "")
	var invalid *domain.InvalidArgumentError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidArgumentError, got %v", err)
	}
}

func TestGetBeneficiaryFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/beneficiaries/7" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":7,"customerId":"CUST001","beneficiaryName":"Acme Corp","status":"ACTIVE"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	beneficiary, err := client.GetBeneficiary(context.Background(), 7, "CUST001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if beneficiary == nil || beneficiary.ID != 7 {
		t.Fatalf("unexpected beneficiary: %+v", beneficiary)
	}
}

func TestGetBeneficiaryEmptyBodyMeansNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	beneficiary, err := client.GetBeneficiary(context.Background(), 7, "CUST001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if beneficiary != nil {
		t.Fatalf("expected nil for unknown beneficiary, got %+v", beneficiary)
	}
}

func TestGetBeneficiaryOpenBreakerShortCircuits(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	reg := resilience.NewRegistry()
	reg.Configure(ServiceName, resilience.Policy{
		MaxAttempts: 1,
		CallTimeout: time.Second,
		Breaker: resilience.BreakerConfig{
			SlidingWindowSize:    4,
			MinimumCalls:         2,
			FailureRateThreshold: 50,
			OpenDuration:         time.Minute,
		},
	})
	client := NewClient(server.URL, "/api/v1/beneficiaries", reg)

	for i := 0; i < 2; i++ {
		if _, err := client.GetBeneficiary(context.Background(), 7, "CUST001"); err == nil {
			t.Fatal("expected failure")
		}
	}
	if got := reg.BreakerFor(ServiceName).State(); got != resilience.StateOpen {
		t.Fatalf("expected OPEN breaker, got %s", got)
	}

	before := calls
	_, err := client.GetBeneficiary(context.Background(), 7, "CUST001")
	if calls != before {
		t.Fatalf("expected no request while breaker open, got %d extra", calls-before)
	}
	var notPermitted *resilience.CallNotPermittedError
	if !errors.As(err, &notPermitted) {
		t.Fatalf("expected CallNotPermittedError through the fallback, got %v", err)
	}
}

func TestGetBeneficiaryInvalidID(t *testing.T) {
	client := newTestClient("http://localhost:0")

	_, err := client.GetBeneficiary(context.Background(), 0, "CUST001")
	var invalid *domain.InvalidArgumentError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidArgumentError, got %v", err)
	}
}
