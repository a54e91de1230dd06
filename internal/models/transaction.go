package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TrxCreditPurchase  TransactionType = "CREDIT_PURCHASE"
	TrxSessionPayment  TransactionType = "SESSION_PAYMENT"
	TrxSessionEarning  TransactionType = "SESSION_EARNING"
	TrxRefund          TransactionType = "REFUND"
	TrxAdminAdjustment TransactionType = "ADMIN_ADJUSTMENT"
)

type TransactionStatus string

const (
	TrxStatusCompleted TransactionStatus = "COMPLETED"
)

// Transaction is an append-only ledger entry. Rows are never mutated after
// creation; the amount is signed (debits negative).
type Transaction struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	WalletID uuid.UUID `gorm:"type:char(36);index;not null" json:"wallet_id"`

	SessionID *uuid.UUID `gorm:"type:char(36);index" json:"session_id,omitempty"`
	PaymentID *uuid.UUID `gorm:"type:char(36);index" json:"payment_id,omitempty"`

	Type        TransactionType   `gorm:"type:varchar(30);not null;index" json:"type"`
	Amount      int64             `gorm:"not null" json:"amount"`
	Description string            `gorm:"type:text" json:"description"`
	Status      TransactionStatus `gorm:"type:varchar(20);not null;default:'COMPLETED'" json:"status"`

	// Epoch milliseconds UTC.
	CreatedAt int64 `gorm:"autoCreateTime:milli;index" json:"created_at"`

	Wallet *Wallet `gorm:"foreignKey:WalletID" json:"-"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
