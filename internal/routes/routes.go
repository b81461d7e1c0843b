// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"kobo/internal/config"
	"kobo/internal/handlers"
	"kobo/internal/middleware"
	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/services/auth"
	"kobo/internal/services/ledger"
	"kobo/internal/services/notification"
	"kobo/internal/services/transaction"
	"kobo/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App) {
	// Initialize repositories
	store := repositories.NewStore(repositories.DB)
	userRepo := store.Users()
	walletRepo := store.Wallets()
	transactionRepo := store.Transactions()

	// Initialize services in dependency order
	notifier := notification.NewService(config.GetEnv("APP_URL", "http://localhost:3000"))
	walletService := wallet.NewService(walletRepo, repositories.CacheService)
	authService := auth.NewService(userRepo, walletService, notifier)

	ledgerService := ledger.NewService(
		store,
		ledger.NewIdempotencyIndex(repositories.CacheService),
		wallet.NewResolver(userRepo, walletRepo),
		ledger.Config{
			MaxTransactionAmount: decimal.NewFromInt(int64(config.GetIntEnv("MAX_TRANSACTION_AMOUNT", 1_000_000))),
		},
		nil,
	)

	transactionService := transaction.NewService(transactionRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	walletHandler := handlers.NewWalletHandler(walletService, ledgerService, store, notifier)
	transactionHandler := handlers.NewTransactionHandler(walletService, transactionService)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Kobo API",
			"version": "1.0.0",
			"docs":    "/api",
		})
	})
	app.Get("/health", handlers.HealthCheck)

	// Public endpoints (no auth required)
	api := app.Group("/api")
	api.Get("/health", handlers.HealthCheck)
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Post("/refresh", authHandler.RefreshToken)
	api.Get("/verify-email", authHandler.VerifyEmail)

	// Create middleware instance
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// Protected routes with auth middleware
	protected := api.Use(authMiddleware.Handler)

	protected.Post("/logout", authHandler.Logout)

	protected.Get("/wallet",
		middleware.RequirePermission(models.PermissionWalletRead),
		walletHandler.GetWallet)
	protected.Post("/wallet/credit",
		middleware.RequirePermission(models.PermissionWalletWrite),
		walletHandler.Credit)
	protected.Post("/wallet/debit",
		middleware.RequirePermission(models.PermissionWalletWrite),
		walletHandler.Debit)
	protected.Post("/wallet/transfer",
		middleware.RequirePermission(models.PermissionWalletWrite),
		walletHandler.Transfer)

	protected.Get("/transactions",
		middleware.RequirePermission(models.PermissionTransactionRead),
		transactionHandler.List)
	protected.Get("/transactions/summary",
		middleware.RequirePermission(models.PermissionTransactionRead),
		transactionHandler.Summary)
	protected.Get("/transactions/:id",
		middleware.RequirePermission(models.PermissionTransactionRead),
		transactionHandler.Get)
}
