package ledger

import "time"

// Result statuses
const (
	StatusSuccess   = "success"
	StatusDuplicate = "duplicate"
)

// Idempotency key suffixes for the two sides of a transfer.
const (
	DebitKeySuffix  = ":debit"
	CreditKeySuffix = ":credit"
)

// Default configuration values
const (
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxAmount      = 1_000_000
)

// Cache key prefix for idempotency entries.
const idempotencyCachePrefix = "idem:"
