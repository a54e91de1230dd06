package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Skill struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name     string    `gorm:"uniqueIndex;not null" json:"name"`
	Category string    `gorm:"type:varchar(50);index" json:"category"`

	CreatedAt time.Time `json:"created_at"`
}

func (s *Skill) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// UserSkill links a user to a skill they can teach.
type UserSkill struct {
	ID      uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_user_skill" json:"user_id"`
	SkillID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_user_skill" json:"skill_id"`

	// Credits per hour of teaching.
	HourlyRate  int64  `gorm:"not null;default:10" json:"hourly_rate"`
	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at"`

	User  *User  `gorm:"foreignKey:UserID" json:"-"`
	Skill *Skill `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
}

func (us *UserSkill) BeforeCreate(tx *gorm.DB) (err error) {
	if us.ID == uuid.Nil {
		us.ID = uuid.New()
	}
	return
}
