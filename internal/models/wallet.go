package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds the monetary balance for one user. A wallet is created once
// after the user verifies their email, is never deleted, and its address is
// immutable once issued. The balance is only mutated by the ledger engine
// while the row is held under an exclusive lock.
type Wallet struct {
	ID        uint            `gorm:"primarykey"`
	UserID    uint            `gorm:"uniqueIndex;not null"`
	Address   string          `gorm:"size:10;uniqueIndex;not null"`
	Balance   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	Currency  string          `gorm:"size:10;default:'NGN'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
