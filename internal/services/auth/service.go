// Package auth handles registration, email verification and the JWT
// session lifecycle. Wallets are provisioned only once an email is
// verified, so every wallet belongs to a reachable owner.
package auth

import (
	"context"
	"errors"
	"log"

	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/services/notification"
	"kobo/internal/services/wallet"
	"kobo/internal/utils"
	"kobo/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password must be 8 to 72 characters and contain special characters")
	ErrAlreadyVerified    = errors.New("email already verified")
)

// Service defines the authentication interface
type Service interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, string, error)
	RefreshTokens(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, userID uint) error
	GetUser(ctx context.Context, userID uint) (*models.User, error)
}

type service struct {
	userRepo repositories.UserRepository
	wallets  wallet.Service
	notifier notification.Service
}

// NewService creates a new auth service
func NewService(userRepo repositories.UserRepository, wallets wallet.Service, notifier notification.Service) Service {
	if userRepo == nil {
		panic("user repo is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	if notifier == nil {
		panic("notification service is required")
	}
	return &service{
		userRepo: userRepo,
		wallets:  wallets,
		notifier: notifier,
	}
}

func (s *service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	// Upper bound matches what bcrypt will actually hash.
	if len(password) < validation.MinPasswordLength ||
		len(password) > validation.MaxPasswordLength ||
		!validation.HasSpecialChar(password) {
		return nil, ErrWeakPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &models.User{
		Name:              name,
		Email:             email,
		Password:          string(hashedPassword),
		VerificationToken: uuid.New().String(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUser) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.notifier.SendVerificationEmail(ctx, user, user.VerificationToken); err != nil {
		// The account exists either way; the user can request a resend.
		log.Printf("failed to send verification mail to %s: %v", user.Email, err)
	}

	return user, nil
}

// VerifyEmail marks the account verified and provisions its wallet. A
// second call with the same token fails because the token is cleared.
func (s *service) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.IsVerified() {
		return nil, ErrAlreadyVerified
	}

	user.MarkVerified()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	w, err := s.wallets.CreateForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.WalletID = &w.ID
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		log.Printf("Login failed: user not found for %s", email)
		return nil, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Printf("Login failed: incorrect password for user ID %d", user.ID)
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		Permissions:  models.DefaultPermissions(),
	})
	if err != nil {
		log.Println("Error generating tokens:", err)
		return nil, "", "", errors.New("error generating tokens")
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) RefreshTokens(ctx context.Context, refreshToken string) (string, string, error) {
	claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	if user.TokenVersion != claims.TokenVersion {
		return "", "", ErrInvalidToken
	}

	return utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		Permissions:  models.DefaultPermissions(),
	})
}

// Logout bumps the token version so every outstanding token stops
// validating at once.
func (s *service) Logout(ctx context.Context, userID uint) error {
	return s.userRepo.IncrementTokenVersion(ctx, userID)
}

func (s *service) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
