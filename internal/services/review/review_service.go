package review

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradeskills/tradeskills-backend/internal/models"
	"github.com/tradeskills/tradeskills-backend/internal/services/session"
)

var (
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrSessionNotCompleted = errors.New("session must be completed before reviewing")
	ErrNotSessionPeer      = errors.New("reviews can only go between a session's host and its participants")
	ErrReviewExists        = errors.New("review already submitted for this session")
)

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type CreateInput struct {
	SessionID  uuid.UUID
	ReceiverID uuid.UUID
	Rating     int
	Comment    string
}

// Create records feedback from one side of a completed session about the
// other. The sender and receiver must be host and participant of the same
// session, in either direction, and each pair reviews once per session.
func (s *Service) Create(senderID uuid.UUID, in CreateInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if in.ReceiverID == senderID {
		return nil, ErrNotSessionPeer
	}

	var rev models.Review
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var sess models.Session
		if err := tx.First(&sess, "id = ?", in.SessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return session.ErrSessionNotFound
			}
			return err
		}
		if sess.Status != models.SessionCompleted {
			return ErrSessionNotCompleted
		}

		// One side must be the host, the other a participant who stayed.
		var peer uuid.UUID
		switch {
		case sess.HostID == senderID:
			peer = in.ReceiverID
		case sess.HostID == in.ReceiverID:
			peer = senderID
		default:
			return ErrNotSessionPeer
		}
		var joined int64
		err := tx.Model(&models.SessionParticipant{}).
			Where("session_id = ? AND user_id = ? AND left_at IS NULL", in.SessionID, peer).
			Count(&joined).Error
		if err != nil {
			return err
		}
		if joined == 0 {
			return ErrNotSessionPeer
		}

		var dup int64
		err = tx.Model(&models.Review{}).
			Where("session_id = ? AND sender_id = ? AND receiver_id = ?",
				in.SessionID, senderID, in.ReceiverID).
			Count(&dup).Error
		if err != nil {
			return err
		}
		if dup > 0 {
			return ErrReviewExists
		}

		rev = models.Review{
			SessionID:  in.SessionID,
			SenderID:   senderID,
			ReceiverID: in.ReceiverID,
			Rating:     in.Rating,
			Comment:    in.Comment,
		}
		return tx.Create(&rev).Error
	})
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// ListForUser returns the reviews a user has received, newest first.
func (s *Service) ListForUser(receiverID uuid.UUID, limit, offset int) ([]models.Review, error) {
	if limit <= 0 {
		limit = 20
	}

	var reviews []models.Review
	err := s.DB.Where("receiver_id = ?", receiverID).
		Preload("Sender").
		Preload("Session").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&reviews).Error
	return reviews, err
}

// RatingSummary is a user's aggregate received rating.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

func (s *Service) Summary(receiverID uuid.UUID) (*RatingSummary, error) {
	var out RatingSummary
	err := s.DB.Model(&models.Review{}).
		Where("receiver_id = ?", receiverID).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}
