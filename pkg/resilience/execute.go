/**
 * @description
 * Execute runs a remote operation under the protection of a per-service
 * circuit breaker, a bounded per-attempt timeout, and a fixed retry budget
 * with backoff. When the breaker is open or retries are exhausted, the
 * supplied fallback receives the triggering failure. The whole
 * attempt -> record outcome -> maybe retry -> maybe fallback control flow
 * is explicit so each piece can be tested on its own.
 */

package resilience

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Operation is one remote call attempt. The context it receives carries
// the per-attempt timeout and must be passed to the underlying request.
type Operation[T any] func(ctx context.Context) (T, error)

// Fallback is invoked with the failure that exhausted the call: a
// CallNotPermittedError, the last attempt's error, or a context error.
// A fallback must surface a failure to the caller; it never fabricates a
// success (graceful degradation is an orchestrator decision, not a
// gateway one).
type Fallback[T any] func(err error) (T, error)

// Execute runs op for the named service under reg's breaker and policy.
func Execute[T any](ctx context.Context, reg *Registry, service string, op Operation[T], fallback Fallback[T]) (T, error) {
	policy := reg.PolicyFor(service)
	breaker := reg.BreakerFor(service)

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := breaker.Allow(); err != nil {
			log.Printf("level=warn component=resilience service=%s attempt=%d outcome=skipped reason=breaker_open", service, attempt)
			return fallback(err)
		}

		callCtx, cancel := context.WithTimeout(ctx, policy.CallTimeout)
		result, err := op(callCtx)
		cancel()

		if err == nil {
			breaker.RecordSuccess()
			return result, nil
		}

		if ctx.Err() != nil {
			// The inbound caller went away; abandon without retrying.
			breaker.RecordFailure()
			log.Printf("level=warn component=resilience service=%s attempt=%d outcome=abandoned err=%v", service, attempt, ctx.Err())
			return fallback(ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrCallTimeout, err)
		}
		breaker.RecordFailure()
		lastErr = err
		log.Printf("level=warn component=resilience service=%s attempt=%d max_attempts=%d outcome=failed err=%v",
			service, attempt, policy.MaxAttempts, err)

		if attempt < policy.MaxAttempts && policy.Backoff > 0 {
			select {
			case <-time.After(policy.Backoff):
			case <-ctx.Done():
				return fallback(ctx.Err())
			}
		}
	}

	return fallback(lastErr)
}
