/**
 * @description
 * Transport-level failure types produced by the resilient call wrapper.
 * Gateways surface these to the orchestrator; only the orchestrator decides
 * whether a ServiceUnavailableError may be swallowed (beneficiary
 * degradation) or must reach the caller as a 503.
 */

package resilience

import (
	"errors"
	"fmt"
)

// ErrCallTimeout marks a single remote attempt that exceeded its bound.
// After retries it is folded into a ServiceUnavailableError by the fallback.
var ErrCallTimeout = errors.New("remote call timed out")

// ServiceUnavailableError reports that a downstream service could not be
// reached: the breaker was open or retries were exhausted. It always names
// the offending service and keeps the underlying cause for logs.
type ServiceUnavailableError struct {
	Service string
	Msg     string
	Cause   error
}

func (e *ServiceUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s service unavailable: %s: %v", e.Service, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s service unavailable: %s", e.Service, e.Msg)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Cause }

// CallNotPermittedError reports that the circuit breaker for a service is
// open and the call was skipped without reaching the network.
type CallNotPermittedError struct {
	Service string
}

func (e *CallNotPermittedError) Error() string {
	return fmt.Sprintf("call not permitted: circuit breaker for %s is open", e.Service)
}
