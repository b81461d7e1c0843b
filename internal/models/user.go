package models

import (
	"time"
)

type User struct {
	ID                uint   `gorm:"primarykey"`
	Email             string `gorm:"uniqueIndex;not null"`
	Password          string `gorm:"not null"`
	Name              string `gorm:"not null"`
	EmailVerifiedAt   *time.Time
	VerificationToken string `gorm:"size:64;index"`
	TokenVersion      int    `gorm:"default:1"`
	WalletID          *uint  `gorm:"unique;default:null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsVerified reports whether the user has completed email verification.
// Only verified users get a wallet and can receive transfers.
func (u *User) IsVerified() bool { return u.EmailVerifiedAt != nil }

// MarkVerified stamps the verification time and burns the token so the
// link cannot be replayed.
func (u *User) MarkVerified() {
	now := time.Now()
	u.EmailVerifiedAt = &now
	u.VerificationToken = ""
}
