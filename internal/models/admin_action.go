package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AdminActionType string

const (
	ActionCreditAdjustment AdminActionType = "CREDIT_ADJUSTMENT"
	ActionSessionCancelled AdminActionType = "SESSION_CANCELLED"
	ActionUserSuspended    AdminActionType = "USER_SUSPENDED"
	ActionUserRestored     AdminActionType = "USER_RESTORED"
)

// AdminAction is the audit trail for admin overrides. AdminID is always the
// real acting admin; writes with a zero AdminID are rejected by the service.
type AdminAction struct {
	ID           uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	AdminID      uuid.UUID       `gorm:"type:char(36);index;not null" json:"admin_id"`
	TargetUserID *uuid.UUID      `gorm:"type:char(36);index" json:"target_user_id,omitempty"`
	Action       AdminActionType `gorm:"type:varchar(30);not null;index" json:"action"`
	Description  string          `gorm:"type:text" json:"description"`
	Metadata     datatypes.JSON  `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Admin *User `gorm:"foreignKey:AdminID" json:"-"`
}

func (a *AdminAction) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
