package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Wallet keeps a user's credit balances. Available and locked credits only
// move through paired operations: a lock moves available -> locked, a release
// moves locked -> available (refund) or locked -> spent (session payment).
type Wallet struct {
	ID     uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:char(36);uniqueIndex;not null" json:"user_id"`

	AvailableCredits int64 `gorm:"not null;default:0" json:"available_credits"`
	LockedCredits    int64 `gorm:"not null;default:0" json:"locked_credits"`
	TotalEarned      int64 `gorm:"not null;default:0" json:"total_earned"`
	TotalSpent       int64 `gorm:"not null;default:0" json:"total_spent"`

	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime:milli" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}

// CreditLock reserves part of a wallet's balance against a session until the
// session settles. Released exactly once, either as a refund or as payment.
type CreditLock struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	WalletID  uuid.UUID `gorm:"type:char(36);index;not null" json:"wallet_id"`
	SessionID uuid.UUID `gorm:"type:char(36);index;not null" json:"session_id"`

	Amount     int64  `gorm:"not null" json:"amount"`
	Reason     string `gorm:"type:text" json:"reason"`
	IsReleased bool   `gorm:"not null;default:false;index" json:"is_released"`

	// Epoch milliseconds UTC.
	LockedAt   int64  `gorm:"autoCreateTime:milli" json:"locked_at"`
	ReleasedAt *int64 `json:"released_at,omitempty"`

	Wallet *Wallet `gorm:"foreignKey:WalletID" json:"-"`
}

func (l *CreditLock) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
