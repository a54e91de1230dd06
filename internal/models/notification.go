package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification is the stored copy of a realtime event. The websocket frame
// only reaches users who are connected; the row is what offline users catch
// up on.
type Notification struct {
	ID     uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:char(36);index;not null" json:"user_id"`

	Type    string         `gorm:"type:varchar(50);index;not null" json:"type"`
	Title   string         `gorm:"not null" json:"title"`
	Message string         `gorm:"type:text" json:"message"`
	Data    datatypes.JSON `json:"data,omitempty"`

	IsRead bool `gorm:"not null;default:false;index" json:"is_read"`

	// Epoch milliseconds UTC.
	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
