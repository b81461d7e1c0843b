// Package wallet manages wallet lifecycle: creation after email
// verification, address issuance and cached lookups. Balance changes are
// the ledger engine's job, never this package's.
package wallet

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"kobo/internal/models"
	"kobo/internal/repositories"
)

// ErrWalletNotFound is returned when a user has no wallet yet.
var ErrWalletNotFound = errors.New("wallet not found")

const addressAttempts = 5

// Service defines the wallet lifecycle interface
type Service interface {
	// CreateForUser creates the user's wallet if it does not exist yet.
	// Safe to call more than once; the existing wallet is returned.
	CreateForUser(ctx context.Context, userID uint) (*models.Wallet, error)
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	GetByAddress(ctx context.Context, address string) (*models.Wallet, error)
	InvalidateCache(ctx context.Context, userID uint)
	InvalidateForWallet(ctx context.Context, walletID uint)
}

// Cache is the subset of the cache service the wallet service needs.
type Cache interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, bool, error)
	CacheWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, userID uint) error
}

type service struct {
	repo  repositories.WalletRepository
	cache Cache
}

// NewService creates a new wallet service
func NewService(repo repositories.WalletRepository, cache Cache) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	return &service{repo: repo, cache: cache}
}

func (s *service) CreateForUser(ctx context.Context, userID uint) (*models.Wallet, error) {
	if existing, err := s.repo.GetByUserID(ctx, userID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < addressAttempts; attempt++ {
		address, err := generateAddress()
		if err != nil {
			return nil, fmt.Errorf("failed to generate wallet address: %w", err)
		}

		wallet := &models.Wallet{
			UserID:   userID,
			Address:  address,
			Currency: "NGN",
		}
		err = s.repo.Create(ctx, wallet)
		if err == nil {
			s.cacheWallet(ctx, wallet)
			return wallet, nil
		}
		if !errors.Is(err, repositories.ErrDuplicateWallet) {
			return nil, err
		}

		// Either the user raced us or the address collided; a re-read
		// settles which.
		if existing, rerr := s.repo.GetByUserID(ctx, userID); rerr == nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("could not allocate a unique wallet address after %d attempts", addressAttempts)
}

func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	// Try cache first
	if wallet, found, err := s.cache.GetWallet(ctx, userID); err == nil && found {
		return wallet, nil
	}

	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	s.cacheWallet(ctx, wallet)
	return wallet, nil
}

func (s *service) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	wallet, err := s.repo.GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

// InvalidateCache drops the cached wallet after a ledger write so the next
// read sees the committed balance.
func (s *service) InvalidateCache(ctx context.Context, userID uint) {
	if err := s.cache.InvalidateWallet(ctx, userID); err != nil {
		// Stale cache self-heals on TTL; nothing else to do here.
		return
	}
}

// InvalidateForWallet resolves a wallet id to its owner and drops that
// cache entry. Used after ledger writes where only the wallet id is known.
func (s *service) InvalidateForWallet(ctx context.Context, walletID uint) {
	wallet, err := s.repo.GetByID(ctx, walletID)
	if err != nil {
		return
	}
	s.InvalidateCache(ctx, wallet.UserID)
}

func (s *service) cacheWallet(ctx context.Context, wallet *models.Wallet) {
	_ = s.cache.CacheWallet(ctx, wallet)
}

// generateAddress issues a WAL-prefixed 7-digit address. Collisions are
// rare and handled by the caller's retry on the unique index.
func generateAddress() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("WAL%07d", n.Int64()), nil
}
