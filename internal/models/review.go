package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is feedback left after a completed session. One review per
// sender-receiver pair per session; the unique index makes duplicates a
// constraint violation even when the service-level check races.
type Review struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	SessionID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_review_session_pair" json:"session_id"`
	SenderID   uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_review_session_pair" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:char(36);not null;index;uniqueIndex:idx_review_session_pair" json:"receiver_id"`

	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `gorm:"type:text" json:"comment"`

	// Epoch milliseconds UTC.
	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"created_at"`

	Session  *Session `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Sender   *User    `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User    `gorm:"foreignKey:ReceiverID" json:"-"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
