/**
 * @description
 * This file defines the client-facing error taxonomy used across the
 * service layers. Handlers match these with errors.As and translate them
 * into the HTTP error envelope; none of them is ever retried.
 *
 * Transport-level failures (service unavailable, breaker open, call
 * timeout) live in pkg/resilience, next to the code that produces them.
 */

package domain

// InvalidArgumentError reports malformed or missing caller input.
type InvalidArgumentError struct {
	Msg string
}

func (e *InvalidArgumentError) Error() string { return e.Msg }

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// PaymentProcessingError reports a business-rule violation: inactive
// account, insufficient balance, beneficiary mismatch, or an ambiguous
// processor response that cannot be trusted silently.
type PaymentProcessingError struct {
	Msg string
}

func (e *PaymentProcessingError) Error() string { return e.Msg }
