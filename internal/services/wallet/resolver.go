package wallet

import (
	"context"
	"errors"
	"strings"

	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/services/ledger"
)

type resolver struct {
	users   repositories.UserRepository
	wallets repositories.WalletRepository
}

// NewResolver creates the recipient resolver used by transfers. An
// identifier containing "@" is treated as an email address, anything else
// as a wallet address.
func NewResolver(users repositories.UserRepository, wallets repositories.WalletRepository) ledger.RecipientResolver {
	if users == nil {
		panic("user repo is required")
	}
	if wallets == nil {
		panic("wallet repo is required")
	}
	return &resolver{users: users, wallets: wallets}
}

func (r *resolver) Resolve(ctx context.Context, identifier string) (*models.Wallet, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ledger.ErrRecipientNotFound
	}

	if strings.Contains(identifier, "@") {
		return r.resolveEmail(ctx, identifier)
	}
	return r.resolveAddress(ctx, identifier)
}

func (r *resolver) resolveEmail(ctx context.Context, email string) (*models.Wallet, error) {
	user, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ledger.ErrRecipientNotFound
		}
		return nil, err
	}
	if !user.IsVerified() {
		return nil, ledger.ErrRecipientUnverified
	}

	wallet, err := r.wallets.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ledger.ErrRecipientNotFound
		}
		return nil, err
	}
	return wallet, nil
}

func (r *resolver) resolveAddress(ctx context.Context, address string) (*models.Wallet, error) {
	wallet, err := r.wallets.GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ledger.ErrRecipientNotFound
		}
		return nil, err
	}
	return wallet, nil
}
