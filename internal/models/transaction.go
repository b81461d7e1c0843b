package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Metadata keys used on ledger entries.
const (
	MetaCounterpartyWalletID      = "counterparty_wallet_id"
	MetaCounterpartyAddress       = "counterparty_address"
	MetaCounterpartyTransactionID = "counterparty_transaction_id"
	MetaPreviousBalance           = "previous_balance"
)

// Transaction is one immutable ledger entry. A single credit or debit
// produces exactly one row; a transfer produces two rows (debit on the
// sender, credit on the recipient) that share one Reference and carry each
// other's id in Metadata. The only mutation allowed after creation is
// attaching the counterparty transaction id once it is known.
//
// IdempotencyKey is unique per logical side: the two rows of a transfer get
// the caller's key with a ":debit" / ":credit" suffix. The unique index is
// the durable backstop for the idempotency cache.
type Transaction struct {
	ID             uint            `gorm:"primarykey"`
	WalletID       uint            `gorm:"index;not null"`
	Type           string          `gorm:"size:10;not null"`
	Amount         decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	BalanceAfter   decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	Reference      string          `gorm:"size:64;index;not null"`
	IdempotencyKey string          `gorm:"size:255;uniqueIndex;not null"`
	Status         string          `gorm:"size:16;not null;default:'pending'"`
	Description    string          `gorm:"size:255"`
	Metadata       JSON            `gorm:"type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsCredit reports whether the entry increased the wallet balance.
func (t *Transaction) IsCredit() bool { return t.Type == TransactionTypeCredit }

// CounterpartyTransactionID returns the linked transaction id for a transfer
// side, or 0 if the entry is not part of a transfer.
func (t *Transaction) CounterpartyTransactionID() uint {
	id, _ := t.Metadata.Uint(MetaCounterpartyTransactionID)
	return id
}

// PreviousBalance returns the balance snapshot taken before the entry was
// applied. Stored as a string in metadata to keep the decimal exact.
func (t *Transaction) PreviousBalance() (decimal.Decimal, bool) {
	raw, ok := t.Metadata[MetaPreviousBalance].(string)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
