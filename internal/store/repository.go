/**
 * @description
 * This file defines the `Repository` interface for customer account access.
 * The orchestration service depends only on this two-operation contract;
 * whether accounts live in process memory or in PostgreSQL is a wiring
 * decision made at startup.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - internal/domain: For the Account model.
 */

package store

import (
	"context"
	"errors"

	"github.com/payflow/payment-consumer-service/internal/domain"
)

var ErrAccountNotFound = errors.New("account not found")

// Repository defines the account store contract.
type Repository interface {
	// FindAccountByCustomerID is a pure read with a case-sensitive key
	// match. It returns ErrAccountNotFound when no account exists.
	FindAccountByCustomerID(ctx context.Context, customerID string) (*domain.Account, error)

	// SaveAccount upserts an account keyed by its customer ID and returns
	// the saved record. A blank customer ID is an invalid argument.
	SaveAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)
}
