package ledger

import (
	"time"

	"kobo/internal/models"

	"github.com/shopspring/decimal"
)

// Config holds configuration for ledger operations
type Config struct {
	MaxTransactionAmount decimal.Decimal
	IdempotencyTTL       time.Duration
}

// OperationRequest describes a single-wallet credit or debit.
type OperationRequest struct {
	Amount         decimal.Decimal
	IdempotencyKey string
	Description    string
}

// TransferRequest describes a wallet-to-wallet transfer. Recipient is a
// wallet address or an email address.
type TransferRequest struct {
	Recipient      string
	Amount         decimal.Decimal
	IdempotencyKey string
	Description    string
}

// OperationResult is returned by Credit and Debit. On a duplicate
// submission it carries the originally recorded transaction and the balance
// snapshot taken when that transaction was applied.
type OperationResult struct {
	Status      string
	Transaction *models.Transaction
	Balance     decimal.Decimal
}

// TransferResult is returned by Transfer.
type TransferResult struct {
	Status            string
	DebitTransaction  *models.Transaction
	CreditTransaction *models.Transaction
	SenderBalance     decimal.Decimal
	RecipientBalance  decimal.Decimal
}
