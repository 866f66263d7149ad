/**
 * @description
 * In-memory implementation of the account Repository. This is the default
 * collaborator when no DATABASE_URL is configured: a mutex-guarded map
 * seeded with demo accounts, safe for concurrent reads and per-key atomic
 * upserts. No cross-key transactions are needed by the service.
 */

package store

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/payflow/payment-consumer-service/internal/domain"
)

// MemoryRepository stores accounts in a process-local map keyed by
// customer ID.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

// NewMemoryRepository creates a repository pre-seeded with the demo
// accounts used by local development and the end-to-end tests.
func NewMemoryRepository() *MemoryRepository {
	r := &MemoryRepository{accounts: make(map[string]domain.Account)}
	for _, a := range SeedAccounts() {
		r.accounts[a.CustomerID] = a
	}
	log.Printf("level=info component=account_store mode=memory msg=\"seeded demo accounts\" count=%d", len(r.accounts))
	return r
}

// FindAccountByCustomerID looks up an account by its exact customer ID.
func (r *MemoryRepository) FindAccountByCustomerID(ctx context.Context, customerID string) (*domain.Account, error) {
	r.mu.RLock()
	account, ok := r.accounts[customerID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrAccountNotFound
	}
	// Return a copy so callers cannot mutate stored state.
	out := account
	return &out, nil
}

// SaveAccount upserts the account keyed by customer ID.
func (r *MemoryRepository) SaveAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if account == nil {
		return nil, &domain.InvalidArgumentError{Msg: "account cannot be nil"}
	}
	if strings.TrimSpace(account.CustomerID) == "" {
		return nil, &domain.InvalidArgumentError{Msg: "customer ID cannot be blank"}
	}

	r.mu.Lock()
	r.accounts[account.CustomerID] = *account
	r.mu.Unlock()

	out := *account
	return &out, nil
}

// SeedAccounts returns the demo accounts provisioned at startup.
func SeedAccounts() []domain.Account {
	return []domain.Account{
		{
			CustomerID:    "CUST001",
			AccountNumber: "ACC001",
			AccountType:   "SAVINGS",
			Balance:       decimal.RequireFromString("10000.00"),
			Currency:      "USD",
			Status:        domain.AccountStatusActive,
			CustomerName:  "John Doe",
			Email:         "john.doe@example.com",
			PhoneNumber:   "+1234567890",
		},
		{
			CustomerID:    "CUST002",
			AccountNumber: "ACC002",
			AccountType:   "CHECKING",
			Balance:       decimal.RequireFromString("5000.00"),
			Currency:      "USD",
			Status:        domain.AccountStatusActive,
			CustomerName:  "Jane Smith",
			Email:         "jane.smith@example.com",
			PhoneNumber:   "+1234567891",
		},
		{
			CustomerID:    "CUST003",
			AccountNumber: "ACC003",
			AccountType:   "SAVINGS",
			Balance:       decimal.RequireFromString("15000.00"),
			Currency:      "USD",
			Status:        domain.AccountStatusActive,
			CustomerName:  "Bob Johnson",
			Email:         "bob.johnson@example.com",
			PhoneNumber:   "+1234567892",
		},
	}
}
