/**
 * @description
 * This file defines the core domain models for the payment-consumer-service.
 * These structs represent the entities exchanged between the API layer, the
 * orchestration service, the local account store, and the two remote
 * collaborators (beneficiaries service and payment processor).
 *
 * @notes
 * - Monetary amounts use decimal.Decimal to avoid floating-point drift on
 *   financial values; the wire representation stays a plain JSON number.
 * - Beneficiary and PaymentResponse are owned by the remote services; this
 *   service only relays and interprets them, it never persists a copy.
 */

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amounts travel as plain JSON numbers on every wire contract this
// service speaks, matching the remote processor's payload shape.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// AccountStatusActive is the only account status that permits payments.
const AccountStatusActive = "ACTIVE"

// Account represents a customer account held in the local store.
type Account struct {
	CustomerID    string          `json:"customerId"`
	AccountNumber string          `json:"accountNumber"`
	AccountType   string          `json:"accountType"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	CustomerName  string          `json:"customerName,omitempty"`
	Email         string          `json:"email,omitempty"`
	PhoneNumber   string          `json:"phoneNumber,omitempty"`
}

// Beneficiary represents a saved payee owned by the remote beneficiaries
// service. Every read is a fresh remote fetch.
type Beneficiary struct {
	ID                       int64      `json:"id"`
	CustomerID               string     `json:"customerId"`
	AccountNumber            string     `json:"accountNumber"`
	BeneficiaryName          string     `json:"beneficiaryName"`
	BeneficiaryAccountNumber string     `json:"beneficiaryAccountNumber"`
	BeneficiaryBankCode      string     `json:"beneficiaryBankCode,omitempty"`
	BeneficiaryBankName      string     `json:"beneficiaryBankName,omitempty"`
	BeneficiaryType          string     `json:"beneficiaryType,omitempty"`
	Status                   string     `json:"status"`
	CreatedAt                *time.Time `json:"createdAt,omitempty"`
	UpdatedAt                *time.Time `json:"updatedAt,omitempty"`
}

// PaymentType identifies the kind of transfer being requested.
type PaymentType string

const (
	PaymentTypeDomesticTransfer      PaymentType = "DOMESTIC_TRANSFER"
	PaymentTypeInternationalTransfer PaymentType = "INTERNATIONAL_TRANSFER"
	PaymentTypeInternalTransfer      PaymentType = "INTERNAL_TRANSFER"
)

// PaymentStatus is the processor-owned status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending                 PaymentStatus = "PENDING"
	PaymentStatusFraudCheckFailed        PaymentStatus = "FRAUD_CHECK_FAILED"
	PaymentStatusInsufficientBalance     PaymentStatus = "INSUFFICIENT_BALANCE"
	PaymentStatusAccountValidationFailed PaymentStatus = "ACCOUNT_VALIDATION_FAILED"
	PaymentStatusProcessing              PaymentStatus = "PROCESSING"
	PaymentStatusCompleted               PaymentStatus = "COMPLETED"
	PaymentStatusFailed                  PaymentStatus = "FAILED"
)

// PaymentRequest is the DTO for incoming payment submission API requests.
type PaymentRequest struct {
	CustomerID    string          `json:"customerId"`
	FromAccount   string          `json:"fromAccount"`
	ToAccount     string          `json:"toAccount"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentType   PaymentType     `json:"paymentType"`
	Description   string          `json:"description,omitempty"`
	BeneficiaryID int64           `json:"beneficiaryId,omitempty"`
}

// PaymentResponse is the processor-owned record of a payment. The
// orchestrator relays it unchanged; Timestamp is filled at construction
// when the processor omits it.
type PaymentResponse struct {
	TransactionID string          `json:"transactionId"`
	FromAccount   string          `json:"fromAccount"`
	ToAccount     string          `json:"toAccount"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentType   PaymentType     `json:"paymentType"`
	Status        PaymentStatus   `json:"status"`
	Message       string          `json:"message,omitempty"`
	FailureReason string          `json:"failureReason,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}
