package ledger

import "errors"

// Service errors. All of them guarantee zero mutation, and
// ErrConcurrencyConflict is retryable with the same idempotency key.
var (
	ErrWalletNotFound        = errors.New("wallet not found")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrSameWalletTransfer    = errors.New("cannot transfer to your own wallet")
	ErrRecipientNotFound     = errors.New("recipient wallet not found")
	ErrRecipientUnverified   = errors.New("recipient has not verified their account")
	ErrConcurrencyConflict   = errors.New("wallet is busy, retry with the same idempotency key")
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
)
