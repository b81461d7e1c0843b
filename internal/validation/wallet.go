package validation

import (
	"errors"
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`^WAL\d{7}$`)

// IsWalletAddress reports whether s looks like a wallet address.
func IsWalletAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// ValidateIdempotencyKey checks the client-supplied key before it reaches
// the ledger. Keys are opaque; only presence and length matter.
func ValidateIdempotencyKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("idempotency_key is required")
	}
	if len(key) > MaxIdempotencyKeyLength {
		return errors.New("idempotency_key exceeds 100 characters")
	}
	return nil
}

// ValidateDescription bounds the free-text field stored with each entry.
func ValidateDescription(desc string) error {
	if len(desc) > MaxDescriptionLength {
		return errors.New("description exceeds 500 characters")
	}
	return nil
}
