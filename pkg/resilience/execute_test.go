package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testRegistry(service string, p Policy) *Registry {
	reg := NewRegistry()
	reg.Configure(service, p)
	return reg
}

func passthroughFallback(err error) (string, error) {
	return "", err
}

func TestExecuteReturnsResultOnFirstSuccess(t *testing.T) {
	reg := testRegistry("svc", Policy{MaxAttempts: 3, CallTimeout: time.Second})

	calls := 0
	result, err := Execute(context.Background(), reg, "svc",
		func(ctx context.Context) (string, error) {
			calls++
			return "ok", nil
		},
		passthroughFallback,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Fatalf("expected ok, got %q", result)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	reg := testRegistry("svc", Policy{MaxAttempts: 3, CallTimeout: time.Second})

	calls := 0
	result, err := Execute(context.Background(), reg, "svc",
		func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("transient")
			}
			return "ok", nil
		},
		passthroughFallback,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Fatalf("expected ok, got %q", result)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestExecuteInvokesFallbackAfterExhaustedRetries(t *testing.T) {
	reg := testRegistry("svc", Policy{MaxAttempts: 3, CallTimeout: time.Second})

	boom := errors.New("boom")
	calls := 0
	fallbackErr := errors.New("degraded")
	var fallbackGot error
	_, err := Execute(context.Background(), reg, "svc",
		func(ctx context.Context) (string, error) {
			calls++
			return "", boom
		},
		func(err error) (string, error) {
			fallbackGot = err
			return "", fallbackErr
		},
	)
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if !errors.Is(fallbackGot, boom) {
		t.Fatalf("expected fallback to receive last attempt error, got %v", fallbackGot)
	}
	if !errors.Is(err, fallbackErr) {
		t.Fatalf("expected fallback error to surface, got %v", err)
	}
}

func TestExecuteOpenBreakerSkipsOperation(t *testing.T) {
	reg := testRegistry("svc", Policy{
		MaxAttempts: 1,
		CallTimeout: time.Second,
		Breaker:     BreakerConfig{SlidingWindowSize: 4, MinimumCalls: 2, FailureRateThreshold: 50},
	})

	boom := errors.New("boom")
	calls := 0
	op := func(ctx context.Context) (string, error) {
		calls++
		return "", boom
	}

	// Two failed calls open the breaker.
	for i := 0; i < 2; i++ {
		if _, err := Execute(context.Background(), reg, "svc", op, passthroughFallback); err == nil {
			t.Fatal("expected failure")
		}
	}
	if got := reg.BreakerFor("svc").State(); got != StateOpen {
		t.Fatalf("expected OPEN breaker, got %s", got)
	}

	// The next call must be rejected without invoking the operation.
	before := calls
	_, err := Execute(context.Background(), reg, "svc", op, passthroughFallback)
	if calls != before {
		t.Fatalf("expected operation to be skipped, got %d extra calls", calls-before)
	}
	var notPermitted *CallNotPermittedError
	if !errors.As(err, &notPermitted) {
		t.Fatalf("expected CallNotPermittedError, got %v", err)
	}
}

func TestExecuteWrapsPerAttemptTimeout(t *testing.T) {
	reg := testRegistry("svc", Policy{MaxAttempts: 1, CallTimeout: 20 * time.Millisecond})

	_, err := Execute(context.Background(), reg, "svc",
		func(ctx context.Context) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Second):
				return "slow", nil
			}
		},
		passthroughFallback,
	)
	if !errors.Is(err, ErrCallTimeout) {
		t.Fatalf("expected ErrCallTimeout, got %v", err)
	}
}

func TestExecuteAbandonsOnCallerCancellation(t *testing.T) {
	reg := testRegistry("svc", Policy{MaxAttempts: 3, Backoff: time.Second, CallTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Execute(ctx, reg, "svc",
		func(ctx context.Context) (string, error) {
			calls++
			cancel()
			return "", errors.New("boom")
		},
		passthroughFallback,
	)
	if calls != 1 {
		t.Fatalf("expected no retries after caller cancellation, got %d calls", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExecuteUsesDefaultsForUnconfiguredService(t *testing.T) {
	reg := NewRegistry()

	p := reg.PolicyFor("unknown")
	if p.MaxAttempts != 3 {
		t.Fatalf("expected default of 3 attempts, got %d", p.MaxAttempts)
	}
	if p.CallTimeout != 5*time.Second {
		t.Fatalf("expected default 5s timeout, got %s", p.CallTimeout)
	}

	b := reg.BreakerFor("unknown")
	if b == nil || b.Name() != "unknown" {
		t.Fatal("expected a lazily created breaker")
	}
	if b != reg.BreakerFor("unknown") {
		t.Fatal("expected the same breaker instance on repeated lookup")
	}
}
