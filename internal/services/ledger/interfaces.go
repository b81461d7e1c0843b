package ledger

import (
	"context"
	"time"

	"kobo/internal/models"

	"github.com/shopspring/decimal"
)

// Service defines the ledger engine interface
type Service interface {
	Credit(ctx context.Context, walletID uint, req OperationRequest) (*OperationResult, error)
	Debit(ctx context.Context, walletID uint, req OperationRequest) (*OperationResult, error)
	Transfer(ctx context.Context, senderWalletID uint, req TransferRequest) (*TransferResult, error)
	GetBalance(ctx context.Context, walletID uint) (decimal.Decimal, error)
}

// RecipientResolver turns a recipient identifier (wallet address or email)
// into a wallet. It is consulted before any lock is taken.
type RecipientResolver interface {
	Resolve(ctx context.Context, identifier string) (*models.Wallet, error)
}

// IdempotencyIndex is the fast lookup from idempotency key to the recorded
// transaction id. It is only an accelerator: a miss means "check the
// durable log", never "not seen".
type IdempotencyIndex interface {
	Get(ctx context.Context, key string) (uint, bool, error)
	Put(ctx context.Context, key string, transactionID uint, ttl time.Duration) error
}
