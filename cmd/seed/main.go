// Package main seeds a verified demo account with a funded wallet.
// Useful for local development and manual API testing.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"kobo/internal/config"
	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/services/ledger"
	"kobo/internal/services/wallet"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()

	email := os.Getenv("SEED_EMAIL")
	password := os.Getenv("SEED_PASSWORD")
	name := config.GetEnv("SEED_NAME", "Demo User")
	amount := config.GetEnv("SEED_AMOUNT", "1000.00")

	if email == "" || password == "" {
		log.Fatal("SEED_EMAIL and SEED_PASSWORD must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer func() {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Printf("⚠️ Failed to close PostgreSQL connection: %v", err)
			}
		}
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("⚠️ Failed to close Redis connection: %v", err)
			}
		}
	}()

	ctx := context.Background()
	store := repositories.NewStore(repositories.DB)

	user, err := store.Users().GetByEmail(ctx, email)
	switch {
	case err == nil:
		log.Println("Seed user already exists")
	case errors.Is(err, repositories.ErrUserNotFound):
		hashedPassword, herr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if herr != nil {
			log.Fatal("Failed to hash password:", herr)
		}
		now := time.Now()
		user = &models.User{
			Name:            name,
			Email:           email,
			Password:        string(hashedPassword),
			EmailVerifiedAt: &now,
		}
		if err := store.Users().Create(ctx, user); err != nil {
			log.Fatal("Failed to create seed user:", err)
		}
	default:
		log.Fatal("Failed to look up seed user:", err)
	}

	walletService := wallet.NewService(store.Wallets(), repositories.CacheService)
	w, err := walletService.CreateForUser(ctx, user.ID)
	if err != nil {
		log.Fatal("Failed to create wallet:", err)
	}
	if user.WalletID == nil {
		user.WalletID = &w.ID
		if err := store.Users().Update(ctx, user); err != nil {
			log.Fatal("Failed to link wallet:", err)
		}
	}

	ledgerService := ledger.NewService(
		store,
		ledger.NewIdempotencyIndex(repositories.CacheService),
		wallet.NewResolver(store.Users(), store.Wallets()),
		ledger.Config{},
		nil,
	)

	seedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		log.Fatal("Invalid SEED_AMOUNT:", err)
	}

	// The key is derived from the email, so reruns replay instead of
	// crediting twice.
	result, err := ledgerService.Credit(ctx, w.ID, ledger.OperationRequest{
		Amount:         seedAmount,
		IdempotencyKey: "seed:" + email,
		Description:    "Seed funding",
	})
	if err != nil {
		log.Fatal("Failed to fund wallet:", err)
	}

	log.Printf("✅ Seed account ready: %s wallet=%s balance=%s (%s)",
		email, w.Address, result.Balance, result.Status)
}
