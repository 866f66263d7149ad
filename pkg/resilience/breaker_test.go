package resilience

import (
	"errors"
	"testing"
	"time"
)

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureRateThreshold: 50,
		SlidingWindowSize:    10,
		MinimumCalls:         5,
		OpenDuration:         10 * time.Second,
		HalfOpenMaxCalls:     2,
	}
}

func TestBreakerStaysClosedBelowMinimumCalls(t *testing.T) {
	b := NewBreaker("svc", testBreakerConfig())

	for i := 0; i < 4; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("expected call to be permitted, got %v", err)
		}
		b.RecordFailure()
	}

	if got := b.State(); got != StateClosed {
		t.Fatalf("expected CLOSED below minimum call count, got %s", got)
	}
}

func TestBreakerOpensAtFailureRateThreshold(t *testing.T) {
	b := NewBreaker("svc", testBreakerConfig())

	for i := 0; i < 5; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("attempt %d: expected call to be permitted, got %v", i+1, err)
		}
		b.RecordFailure()
	}

	if got := b.State(); got != StateOpen {
		t.Fatalf("expected OPEN after 5 consecutive failures, got %s", got)
	}

	err := b.Allow()
	if err == nil {
		t.Fatal("expected open breaker to reject the call")
	}
	var notPermitted *CallNotPermittedError
	if !errors.As(err, &notPermitted) {
		t.Fatalf("expected CallNotPermittedError, got %T", err)
	}
	if notPermitted.Service != "svc" {
		t.Fatalf("expected service name svc in error, got %q", notPermitted.Service)
	}
}

func TestBreakerMixedOutcomesBelowThresholdStayClosed(t *testing.T) {
	b := NewBreaker("svc", testBreakerConfig())

	// 4 failures and 6 successes in the window: 40% < 50% threshold.
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	for i := 0; i < 6; i++ {
		b.RecordSuccess()
	}

	if got := b.State(); got != StateClosed {
		t.Fatalf("expected CLOSED at 40%% failure rate, got %s", got)
	}
}

func TestBreakerSlidingWindowEvictsOldOutcomes(t *testing.T) {
	cfg := testBreakerConfig()
	cfg.SlidingWindowSize = 4
	cfg.MinimumCalls = 4
	b := NewBreaker("svc", cfg)

	// Two old failures followed by four successes: the failures fall out of
	// the window, so the breaker must not open.
	b.RecordFailure()
	b.RecordFailure()
	for i := 0; i < 4; i++ {
		b.RecordSuccess()
	}

	if got := b.State(); got != StateClosed {
		t.Fatalf("expected CLOSED once failures left the window, got %s", got)
	}

	// Now two fresh failures put the full window at 50%.
	b.RecordFailure()
	b.RecordFailure()
	if got := b.State(); got != StateOpen {
		t.Fatalf("expected OPEN at 50%% failure rate in the window, got %s", got)
	}
}

func TestBreakerTransitionsToHalfOpenAfterOpenDuration(t *testing.T) {
	b := NewBreaker("svc", testBreakerConfig())
	current := time.Now()
	b.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	if got := b.State(); got != StateOpen {
		t.Fatalf("expected OPEN, got %s", got)
	}
	if err := b.Allow(); err == nil {
		t.Fatal("expected rejection while open")
	}

	current = current.Add(11 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to be permitted, got %v", err)
	}
	if got := b.State(); got != StateHalfOpen {
		t.Fatalf("expected HALF_OPEN after open duration, got %s", got)
	}
}

func TestBreakerHalfOpenProbeBudget(t *testing.T) {
	b := NewBreaker("svc", testBreakerConfig())
	current := time.Now()
	b.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	current = current.Add(11 * time.Second)

	// HalfOpenMaxCalls is 2: the third concurrent probe is rejected.
	if err := b.Allow(); err != nil {
		t.Fatalf("first probe: %v", err)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("second probe: %v", err)
	}
	if err := b.Allow(); err == nil {
		t.Fatal("expected third concurrent probe to be rejected")
	}
}

func TestBreakerClosesAfterSuccessfulProbes(t *testing.T) {
	b := NewBreaker("svc", testBreakerConfig())
	current := time.Now()
	b.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	current = current.Add(11 * time.Second)

	for i := 0; i < 2; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("probe %d: %v", i+1, err)
		}
		b.RecordSuccess()
	}

	if got := b.State(); got != StateClosed {
		t.Fatalf("expected CLOSED after successful probes, got %s", got)
	}

	// The window resets on close: a single failure must not re-open.
	b.RecordFailure()
	if got := b.State(); got != StateClosed {
		t.Fatalf("expected CLOSED after window reset, got %s", got)
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := NewBreaker("svc", testBreakerConfig())
	current := time.Now()
	b.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	current = current.Add(11 * time.Second)

	if err := b.Allow(); err != nil {
		t.Fatalf("probe: %v", err)
	}
	b.RecordFailure()

	if got := b.State(); got != StateOpen {
		t.Fatalf("expected OPEN after failed probe, got %s", got)
	}
	if err := b.Allow(); err == nil {
		t.Fatal("expected rejection after re-open")
	}
}
