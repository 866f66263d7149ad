/**
 * @description
 * Circuit breaker with CLOSED / OPEN / HALF_OPEN states and a count-based
 * sliding window of recent call outcomes. One breaker instance exists per
 * downstream service name for the lifetime of the process.
 *
 * State transitions:
 * - CLOSED -> OPEN   when the window holds at least MinimumCalls outcomes
 *                    and the failure rate reaches FailureRateThreshold.
 * - OPEN -> HALF_OPEN after OpenDuration, at the next permission check.
 * - HALF_OPEN -> OPEN on a single probe failure.
 * - HALF_OPEN -> CLOSED once HalfOpenMaxCalls probes have succeeded.
 *
 * All state is guarded by a single mutex; decisions are atomic within one
 * breaker but deliberately not coordinated across breakers.
 */

package resilience

import (
	"log"
	"sync"
	"time"
)

// State is the lifecycle state of a circuit breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	}
	return "UNKNOWN"
}

// BreakerConfig holds the externally supplied thresholds for one breaker.
type BreakerConfig struct {
	FailureRateThreshold float64 // percentage, 0-100
	SlidingWindowSize    int
	MinimumCalls         int
	OpenDuration         time.Duration
	HalfOpenMaxCalls     int
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureRateThreshold <= 0 || c.FailureRateThreshold > 100 {
		c.FailureRateThreshold = 50
	}
	if c.SlidingWindowSize <= 0 {
		c.SlidingWindowSize = 10
	}
	if c.MinimumCalls <= 0 {
		c.MinimumCalls = 5
	}
	if c.MinimumCalls > c.SlidingWindowSize {
		c.MinimumCalls = c.SlidingWindowSize
	}
	if c.OpenDuration <= 0 {
		c.OpenDuration = 10 * time.Second
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
	return c
}

// Breaker tracks call outcomes for one downstream service.
type Breaker struct {
	name string
	cfg  BreakerConfig

	mu                sync.Mutex
	state             State
	window            []bool // ring buffer of outcomes, true = failure
	head              int
	filled            int
	failures          int
	openedAt          time.Time
	halfOpenInFlight  int
	halfOpenSuccesses int

	now func() time.Time
}

// NewBreaker creates a closed breaker for the named service.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	cfg = cfg.withDefaults()
	return &Breaker{
		name:   name,
		cfg:    cfg,
		state:  StateClosed,
		window: make([]bool, cfg.SlidingWindowSize),
		now:    time.Now,
	}
}

// Name returns the service name this breaker guards.
func (b *Breaker) Name() string { return b.name }

// State reports the current breaker state, transitioning OPEN to HALF_OPEN
// when the open duration has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeTransitionFromOpenLocked()
	return b.state
}

// Allow reports whether a call may proceed. It returns a
// CallNotPermittedError when the breaker is open or the half-open probe
// budget is in use.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.maybeTransitionFromOpenLocked()

	switch b.state {
	case StateOpen:
		return &CallNotPermittedError{Service: b.name}
	case StateHalfOpen:
		if b.halfOpenInFlight >= b.cfg.HalfOpenMaxCalls {
			return &CallNotPermittedError{Service: b.name}
		}
		b.halfOpenInFlight++
	}
	return nil
}

// RecordSuccess registers a successful call outcome.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		if b.halfOpenInFlight > 0 {
			b.halfOpenInFlight--
		}
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.cfg.HalfOpenMaxCalls {
			b.closeLocked()
			log.Printf("level=info component=resilience breaker=%s transition=HALF_OPEN->CLOSED", b.name)
		}
	case StateClosed:
		b.recordOutcomeLocked(false)
	}
}

// RecordFailure registers a failed call outcome and may open the breaker.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.openLocked()
		log.Printf("level=warn component=resilience breaker=%s transition=HALF_OPEN->OPEN", b.name)
	case StateClosed:
		b.recordOutcomeLocked(true)
		if b.filled >= b.cfg.MinimumCalls && b.failureRateLocked() >= b.cfg.FailureRateThreshold {
			b.openLocked()
			log.Printf("level=warn component=resilience breaker=%s transition=CLOSED->OPEN failure_rate=%.1f window=%d",
				b.name, b.failureRateLocked(), b.filled)
		}
	}
}

func (b *Breaker) maybeTransitionFromOpenLocked() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenDuration {
		b.state = StateHalfOpen
		b.halfOpenInFlight = 0
		b.halfOpenSuccesses = 0
		log.Printf("level=info component=resilience breaker=%s transition=OPEN->HALF_OPEN", b.name)
	}
}

func (b *Breaker) recordOutcomeLocked(failure bool) {
	if b.filled == len(b.window) {
		if b.window[b.head] {
			b.failures--
		}
	} else {
		b.filled++
	}
	b.window[b.head] = failure
	if failure {
		b.failures++
	}
	b.head = (b.head + 1) % len(b.window)
}

func (b *Breaker) failureRateLocked() float64 {
	if b.filled == 0 {
		return 0
	}
	return float64(b.failures) / float64(b.filled) * 100
}

func (b *Breaker) openLocked() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
}

func (b *Breaker) closeLocked() {
	b.state = StateClosed
	b.head = 0
	b.filled = 0
	b.failures = 0
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
	for i := range b.window {
		b.window[i] = false
	}
}
