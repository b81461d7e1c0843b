// Package repositories provides the data access layer.
// It handles all database operations and data persistence logic.
package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrWalletNotFound          = errors.New("wallet not found")
	ErrDuplicateWallet         = errors.New("wallet already exists")
	ErrUserNotFound            = errors.New("user not found")
	ErrDuplicateUser           = errors.New("user already exists")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already recorded")
	// ErrLockTimeout is returned when a row lock could not be acquired in
	// time. The caller may retry with the same idempotency key.
	ErrLockTimeout = errors.New("timed out waiting for row lock")
)

// DataStore bundles the repositories behind one transactional boundary.
type DataStore interface {
	Users() UserRepository
	Wallets() WalletRepository
	Transactions() TransactionRepository

	// ExecuteInTransaction runs fn against transaction-scoped repositories.
	// Every write made through the scoped store commits or rolls back as a
	// single unit; row locks taken inside are held until then.
	ExecuteInTransaction(ctx context.Context, fn func(DataStore) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a DataStore backed by the given gorm handle.
func NewStore(db *gorm.DB) DataStore {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository { return &userRepository{db: s.db} }

func (s *gormStore) Wallets() WalletRepository { return &walletRepository{db: s.db} }

func (s *gormStore) Transactions() TransactionRepository { return &transactionRepository{db: s.db} }

func (s *gormStore) ExecuteInTransaction(ctx context.Context, fn func(DataStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
