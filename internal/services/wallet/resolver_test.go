package wallet

import (
	"context"
	"testing"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/services/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[uint]*models.User
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = uint(len(r.users) + 1)
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	for _, u := range r.users {
		if u.VerificationToken == token && token != "" {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) IncrementTokenVersion(ctx context.Context, userID uint) error {
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.TokenVersion++
	return nil
}

type fakeWalletRepo struct {
	wallets map[uint]*models.Wallet
	nextID  uint
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[uint]*models.Wallet)}
}

func (r *fakeWalletRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	for _, w := range r.wallets {
		if w.UserID == wallet.UserID || w.Address == wallet.Address {
			return repositories.ErrDuplicateWallet
		}
	}
	r.nextID++
	wallet.ID = r.nextID
	r.wallets[wallet.ID] = wallet
	return nil
}

func (r *fakeWalletRepo) GetByID(ctx context.Context, id uint) (*models.Wallet, error) {
	w, ok := r.wallets[id]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return w, nil
}

func (r *fakeWalletRepo) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	for _, w := range r.wallets {
		if w.UserID == userID {
			return w, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (r *fakeWalletRepo) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	for _, w := range r.wallets {
		if w.Address == address {
			return w, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (r *fakeWalletRepo) GetForUpdate(ctx context.Context, id uint) (*models.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeWalletRepo) Save(ctx context.Context, wallet *models.Wallet) error {
	r.wallets[wallet.ID] = wallet
	return nil
}

func verifiedUser(id uint, email string) *models.User {
	now := time.Now()
	return &models.User{ID: id, Email: email, EmailVerifiedAt: &now}
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	users := &fakeUserRepo{users: map[uint]*models.User{
		1: verifiedUser(1, "ada@example.com"),
		2: {ID: 2, Email: "pending@example.com"},
		3: verifiedUser(3, "walletless@example.com"),
	}}
	wallets := newFakeWalletRepo()
	require.NoError(t, wallets.Create(ctx, &models.Wallet{UserID: 1, Address: "WAL0000001"}))

	resolver := NewResolver(users, wallets)

	t.Run("resolves a verified email to its wallet", func(t *testing.T) {
		w, err := resolver.Resolve(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, uint(1), w.UserID)
	})

	t.Run("resolves a wallet address", func(t *testing.T) {
		w, err := resolver.Resolve(ctx, "WAL0000001")
		require.NoError(t, err)
		assert.Equal(t, uint(1), w.UserID)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ledger.ErrRecipientNotFound)
	})

	t.Run("unknown address", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "WAL9999999")
		assert.ErrorIs(t, err, ledger.ErrRecipientNotFound)
	})

	t.Run("unverified recipient", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "pending@example.com")
		assert.ErrorIs(t, err, ledger.ErrRecipientUnverified)
	})

	t.Run("verified user without a wallet", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "walletless@example.com")
		assert.ErrorIs(t, err, ledger.ErrRecipientNotFound)
	})

	t.Run("blank identifier", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "  ")
		assert.ErrorIs(t, err, ledger.ErrRecipientNotFound)
	})
}

type noopCache struct{}

func (noopCache) GetWallet(ctx context.Context, userID uint) (*models.Wallet, bool, error) {
	return nil, false, nil
}
func (noopCache) CacheWallet(ctx context.Context, wallet *models.Wallet) error { return nil }
func (noopCache) InvalidateWallet(ctx context.Context, userID uint) error      { return nil }

func TestCreateForUser(t *testing.T) {
	ctx := context.Background()
	wallets := newFakeWalletRepo()
	svc := NewService(wallets, noopCache{})

	w, err := svc.CreateForUser(ctx, 7)
	require.NoError(t, err)
	assert.Regexp(t, `^WAL\d{7}$`, w.Address)
	assert.Equal(t, "NGN", w.Currency)
	assert.True(t, w.Balance.IsZero())

	// Calling again returns the same wallet instead of creating another.
	again, err := svc.CreateForUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)
	assert.Len(t, wallets.wallets, 1)
}
