package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// Payment tracks a gateway purchase of a credit package. Credits are only
// awarded after the gateway signature has been verified.
type Payment struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:char(36);index;not null" json:"user_id"`
	PackageID uuid.UUID `gorm:"type:char(36);index;not null" json:"package_id"`

	GatewayOrderID   string `gorm:"type:varchar(64);uniqueIndex" json:"gateway_order_id"`
	GatewayPaymentID string `gorm:"type:varchar(64)" json:"gateway_payment_id"`

	// Amount in the gateway's smallest currency unit (paise).
	Amount         int64         `gorm:"not null" json:"amount"`
	CreditsAwarded int64         `gorm:"not null" json:"credits_awarded"`
	Status         PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	FailureReason  string        `gorm:"type:text" json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User    *User          `gorm:"foreignKey:UserID" json:"-"`
	Package *CreditPackage `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// CreditPackage is a purchasable bundle of credits.
type CreditPackage struct {
	ID      uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name    string    `gorm:"not null" json:"name"`
	Credits int64     `gorm:"not null" json:"credits"`

	// Price in the gateway's smallest currency unit (paise).
	Price    int64 `gorm:"not null" json:"price"`
	IsActive bool  `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
}

func (p *CreditPackage) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
