package repositories

import (
	"context"
	"time"

	"kobo/internal/models"

	"github.com/shopspring/decimal"
)

// TransactionFilter narrows List queries. Zero values mean "no filter".
type TransactionFilter struct {
	WalletID uint
	Query    string // substring match on reference
	Type     string
	From     time.Time
	To       time.Time
}

// TransactionRepository is the append-only ledger. Rows are immutable once
// written; AttachCounterparty is the single permitted later mutation.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error)

	// AttachCounterparty records the other side's transaction id in the
	// entry's metadata once it is known.
	AttachCounterparty(ctx context.Context, id, counterpartyID uint) error

	List(ctx context.Context, filter TransactionFilter, limit, offset int) ([]models.Transaction, int64, error)
	TotalByType(ctx context.Context, walletID uint, txType string) (decimal.Decimal, error)
}
