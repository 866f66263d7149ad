/**
 * @description
 * Registry mapping downstream service names to their call policy and
 * shared circuit breaker instance. The registry is passed to gateways
 * explicitly instead of living as a hidden singleton, so tests can inject
 * a fresh one per case.
 */

package resilience

import (
	"sync"
	"time"
)

// Policy bundles the retry, timeout, and breaker settings for one service.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
	CallTimeout time.Duration
	Breaker     BreakerConfig
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	if p.CallTimeout <= 0 {
		p.CallTimeout = 5 * time.Second
	}
	return p
}

// Registry holds one breaker and policy per downstream service name.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
	breakers map[string]*Breaker
}

// NewRegistry creates an empty registry. Services without an explicit
// Configure call get default policies on first use.
func NewRegistry() *Registry {
	return &Registry{
		policies: make(map[string]Policy),
		breakers: make(map[string]*Breaker),
	}
}

// Configure sets the policy for a service name. It must be called before
// the first Execute for that service; reconfiguring later replaces the
// policy but keeps the existing breaker state.
func (r *Registry) Configure(service string, p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[service] = p.withDefaults()
}

// PolicyFor returns the configured (or default) policy for a service.
func (r *Registry) PolicyFor(service string) Policy {
	r.mu.RLock()
	p, ok := r.policies[service]
	r.mu.RUnlock()
	if !ok {
		return Policy{}.withDefaults()
	}
	return p
}

// BreakerFor returns the process-wide breaker for a service, creating it
// from the service's policy on first use.
func (r *Registry) BreakerFor(service string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[service]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[service]; ok {
		return b
	}
	p, ok := r.policies[service]
	if !ok {
		p = Policy{}.withDefaults()
		r.policies[service] = p
	}
	b = NewBreaker(service, p.Breaker)
	r.breakers[service] = b
	return b
}
