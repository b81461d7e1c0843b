package repositories

import (
	"context"

	"kobo/internal/models"
)

// WalletRepository defines the interface for wallet-related database operations
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id uint) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	GetByAddress(ctx context.Context, address string) (*models.Wallet, error)

	// GetForUpdate loads a wallet under an exclusive row lock. It is only
	// valid inside DataStore.ExecuteInTransaction; the lock is released when
	// that unit commits or rolls back. Returns ErrLockTimeout when the lock
	// cannot be acquired in time.
	GetForUpdate(ctx context.Context, id uint) (*models.Wallet, error)

	Save(ctx context.Context, wallet *models.Wallet) error
}
