package handlers

import (
	"errors"
	"strconv"
	"time"

	"kobo/internal/repositories"
	"kobo/internal/services/transaction"
	"kobo/internal/services/wallet"
	"kobo/internal/utils"
	"kobo/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

type TransactionHandler struct {
	walletService      wallet.Service
	transactionService transaction.Service
}

func NewTransactionHandler(walletService wallet.Service, transactionService transaction.Service) *TransactionHandler {
	return &TransactionHandler{
		walletService:      walletService,
		transactionService: transactionService,
	}
}

// List returns the caller's transaction history, newest first. Supported
// query params: q (reference substring), type, from, to, page, limit.
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetWallet(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "wallet not found")
		}
		return utils.InternalError(c, "Failed to get wallet")
	}

	filter, err := parseFilter(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	p := pagination.ParseFromRequest(c)
	items, total, err := h.transactionService.History(c.Context(), w.ID, filter, p.Limit, p.Offset)
	if err != nil {
		return utils.InternalError(c, "Failed to list transactions")
	}
	p.Total = total

	return utils.Success(c, pagination.Response(p, items))
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	txID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid transaction id")
	}

	w, err := h.walletService.GetWallet(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "wallet not found")
		}
		return utils.InternalError(c, "Failed to get wallet")
	}

	tx, err := h.transactionService.GetByID(c.Context(), w.ID, uint(txID))
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return utils.NotFound(c, "transaction not found")
		}
		return utils.InternalError(c, "Failed to get transaction")
	}

	return utils.Success(c, fiber.Map{"transaction": tx})
}

// Summary returns lifetime credit and debit totals alongside the balance.
func (h *TransactionHandler) Summary(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetWallet(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "wallet not found")
		}
		return utils.InternalError(c, "Failed to get wallet")
	}

	summary, err := h.transactionService.Summarize(c.Context(), w.ID)
	if err != nil {
		return utils.InternalError(c, "Failed to summarize transactions")
	}

	return utils.Success(c, fiber.Map{
		"balance":   w.Balance,
		"total_in":  summary.TotalIn,
		"total_out": summary.TotalOut,
	})
}

func parseFilter(c *fiber.Ctx) (transaction.Filter, error) {
	filter := transaction.Filter{
		Query: c.Query("q"),
		Type:  c.Query("type"),
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return filter, errors.New("from must be formatted YYYY-MM-DD")
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return filter, errors.New("to must be formatted YYYY-MM-DD")
		}
		// Inclusive end date.
		filter.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	return filter, nil
}
