package handlers

import (
	"context"
	"errors"
	"log"

	"kobo/internal/repositories"
	"kobo/internal/services/ledger"
	"kobo/internal/services/notification"
	"kobo/internal/services/wallet"
	"kobo/internal/utils"
	"kobo/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	walletService wallet.Service
	ledgerService ledger.Service
	store         repositories.DataStore
	notifier      notification.Service
}

func NewWalletHandler(walletService wallet.Service, ledgerService ledger.Service, store repositories.DataStore, notifier notification.Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		ledgerService: ledgerService,
		store:         store,
		notifier:      notifier,
	}
}

// operationInput is the body shared by credit and debit requests.
type operationInput struct {
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key"`
	Description    string          `json:"description"`
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetWallet(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "wallet not found; verify your email first")
		}
		return utils.InternalError(c, "Failed to get wallet")
	}

	return utils.Success(c, fiber.Map{
		"wallet": w,
	})
}

func (h *WalletHandler) Credit(c *fiber.Ctx) error {
	return h.applyOperation(c, false)
}

func (h *WalletHandler) Debit(c *fiber.Ctx) error {
	return h.applyOperation(c, true)
}

func (h *WalletHandler) applyOperation(c *fiber.Ctx, debit bool) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input operationInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if err := validation.ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return utils.BadRequest(c, err.Error())
	}
	if err := validation.ValidateDescription(input.Description); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	w, err := h.walletService.GetWallet(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "wallet not found; verify your email first")
		}
		return utils.InternalError(c, "Failed to get wallet")
	}

	req := ledger.OperationRequest{
		Amount:         input.Amount,
		IdempotencyKey: input.IdempotencyKey,
		Description:    input.Description,
	}

	var result *ledger.OperationResult
	if debit {
		result, err = h.ledgerService.Debit(c.Context(), w.ID, req)
	} else {
		result, err = h.ledgerService.Credit(c.Context(), w.ID, req)
	}
	if err != nil {
		return h.ledgerError(c, err)
	}

	if result.Status == ledger.StatusSuccess {
		h.walletService.InvalidateCache(c.Context(), claims.UserID)
	}

	return utils.Success(c, fiber.Map{
		"status":      result.Status,
		"transaction": result.Transaction,
		"balance":     result.Balance,
	})
}

func (h *WalletHandler) Transfer(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Recipient      string          `json:"recipient"`
		Amount         decimal.Decimal `json:"amount"`
		IdempotencyKey string          `json:"idempotency_key"`
		Description    string          `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Recipient == "" {
		return utils.BadRequest(c, "recipient is required")
	}
	if err := validation.ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return utils.BadRequest(c, err.Error())
	}
	if err := validation.ValidateDescription(input.Description); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	w, err := h.walletService.GetWallet(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "wallet not found; verify your email first")
		}
		return utils.InternalError(c, "Failed to get wallet")
	}

	result, err := h.ledgerService.Transfer(c.Context(), w.ID, ledger.TransferRequest{
		Recipient:      input.Recipient,
		Amount:         input.Amount,
		IdempotencyKey: input.IdempotencyKey,
		Description:    input.Description,
	})
	if err != nil {
		return h.ledgerError(c, err)
	}

	if result.Status == ledger.StatusSuccess {
		h.walletService.InvalidateCache(c.Context(), claims.UserID)
		h.walletService.InvalidateForWallet(c.Context(), result.CreditTransaction.WalletID)
		h.notifyRecipient(c.Context(), result, w.Address)
	}

	return utils.Success(c, fiber.Map{
		"status":             result.Status,
		"debit_transaction":  result.DebitTransaction,
		"credit_transaction": result.CreditTransaction,
		"sender_balance":     result.SenderBalance,
		"recipient_balance":  result.RecipientBalance,
	})
}

// notifyRecipient tells the other side money arrived. Best effort; a
// delivery failure never fails the transfer itself.
func (h *WalletHandler) notifyRecipient(ctx context.Context, result *ledger.TransferResult, senderAddress string) {
	rcptWallet, err := h.store.Wallets().GetByID(ctx, result.CreditTransaction.WalletID)
	if err != nil {
		log.Printf("failed to load recipient wallet for notification: %v", err)
		return
	}
	rcpt, err := h.store.Users().GetByID(ctx, rcptWallet.UserID)
	if err != nil {
		log.Printf("failed to load recipient for notification: %v", err)
		return
	}
	if err := h.notifier.SendTransferReceived(ctx, rcpt, result.CreditTransaction.Amount.StringFixed(2), senderAddress); err != nil {
		log.Printf("failed to notify %s: %v", rcpt.Email, err)
	}
}

// ledgerError maps ledger sentinels onto HTTP statuses. Business rule
// rejections are 422, missing entities 404, contention 409.
func (h *WalletHandler) ledgerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrSameWalletTransfer),
		errors.Is(err, ledger.ErrRecipientUnverified):
		return utils.UnprocessableEntity(c, err.Error())
	case errors.Is(err, ledger.ErrMissingIdempotencyKey):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, ledger.ErrWalletNotFound),
		errors.Is(err, ledger.ErrRecipientNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, ledger.ErrConcurrencyConflict):
		return utils.Conflict(c, "operation timed out waiting for a concurrent transaction; retry with the same idempotency key")
	default:
		return utils.InternalError(c, "Transaction failed")
	}
}
