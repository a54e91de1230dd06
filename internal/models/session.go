package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionPending    SessionStatus = "PENDING"
	SessionConfirmed  SessionStatus = "CONFIRMED"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionCancelled  SessionStatus = "CANCELLED"
)

// Session is the booking aggregate. Cancellation is a status, never a row
// delete. Status moves PENDING -> CONFIRMED -> IN_PROGRESS -> COMPLETED or
// CANCELLED; the two terminal states are final.
type Session struct {
	ID      uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	HostID  uuid.UUID  `gorm:"type:char(36);index;not null" json:"host_id"`
	SkillID *uuid.UUID `gorm:"type:char(36);index" json:"skill_id,omitempty"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	CreditCost      int64 `gorm:"not null" json:"credit_cost"`
	MaxParticipants int   `gorm:"not null;default:1" json:"max_participants"`

	Status SessionStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	// Meeting room references are opaque vendor identifiers.
	MeetingID   string `json:"meeting_id,omitempty"`
	MeetingLink string `json:"meeting_link,omitempty"`

	// Epoch milliseconds UTC.
	ScheduledAt int64  `json:"scheduled_at"`
	StartedAt   *int64 `json:"started_at,omitempty"`
	EndedAt     *int64 `json:"ended_at,omitempty"`
	CreatedAt   int64  `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt   int64  `gorm:"autoUpdateTime:milli" json:"updated_at"`

	Host         *User                `gorm:"foreignKey:HostID" json:"host,omitempty"`
	Skill        *Skill               `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
	Participants []SessionParticipant `gorm:"foreignKey:SessionID" json:"participants,omitempty"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

type SessionParticipant struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_session_user" json:"session_id"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_session_user" json:"user_id"`

	// Epoch milliseconds UTC.
	JoinedAt int64  `gorm:"autoCreateTime:milli" json:"joined_at"`
	LeftAt   *int64 `json:"left_at,omitempty"`

	Session *Session `gorm:"foreignKey:SessionID" json:"-"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (p *SessionParticipant) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
