/**
 * @description
 * PostgreSQL implementation of the account Repository, selected when
 * DATABASE_URL is configured. It implements exactly the same two-operation
 * contract as the in-memory store; nothing above the interface can tell
 * the difference.
 *
 * @dependencies
 * - context, errors, strings: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/payflow/payment-consumer-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository
// interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindAccountByCustomerID retrieves an account by its customer ID.
func (r *PostgresRepository) FindAccountByCustomerID(ctx context.Context, customerID string) (*domain.Account, error) {
	var (
		account    domain.Account
		balanceStr string
	)
	query := `
		SELECT customer_id, account_number, account_type, balance::text, currency, status,
		       COALESCE(customer_name, ''), COALESCE(email, ''), COALESCE(phone_number, '')
		FROM accounts
		WHERE customer_id = $1
	`
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&account.CustomerID,
		&account.AccountNumber,
		&account.AccountType,
		&balanceStr,
		&account.Currency,
		&account.Status,
		&account.CustomerName,
		&account.Email,
		&account.PhoneNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	account.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored balance %q: %w", balanceStr, err)
	}
	return &account, nil
}

// SaveAccount upserts an account keyed by customer_id.
func (r *PostgresRepository) SaveAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if account == nil {
		return nil, &domain.InvalidArgumentError{Msg: "account cannot be nil"}
	}
	if strings.TrimSpace(account.CustomerID) == "" {
		return nil, &domain.InvalidArgumentError{Msg: "customer ID cannot be blank"}
	}

	query := `
		INSERT INTO accounts (customer_id, account_number, account_type, balance, currency, status, customer_name, email, phone_number)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9)
		ON CONFLICT (customer_id) DO UPDATE SET
			account_number = EXCLUDED.account_number,
			account_type   = EXCLUDED.account_type,
			balance        = EXCLUDED.balance,
			currency       = EXCLUDED.currency,
			status         = EXCLUDED.status,
			customer_name  = EXCLUDED.customer_name,
			email          = EXCLUDED.email,
			phone_number   = EXCLUDED.phone_number
	`
	_, err := r.db.Exec(ctx, query,
		account.CustomerID,
		account.AccountNumber,
		account.AccountType,
		account.Balance.String(),
		account.Currency,
		account.Status,
		account.CustomerName,
		account.Email,
		account.PhoneNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	out := *account
	return &out, nil
}

// EnsureSeedAccounts upserts the demo accounts so a fresh database serves
// the same fixtures as the in-memory store.
func (r *PostgresRepository) EnsureSeedAccounts(ctx context.Context) error {
	for _, a := range SeedAccounts() {
		account := a
		if _, err := r.SaveAccount(ctx, &account); err != nil {
			return fmt.Errorf("failed to seed account %s: %w", a.CustomerID, err)
		}
	}
	return nil
}
