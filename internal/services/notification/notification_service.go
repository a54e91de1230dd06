package notification

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tradeskills/tradeskills-backend/internal/models"
	"github.com/tradeskills/tradeskills-backend/internal/realtime"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Service persists notifications and pushes them over the realtime layer.
// The stored row is the source of truth; the websocket frame is best-effort
// delivery for whoever is connected right now.
type Service struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	Publisher *realtime.Publisher
}

func NewService(db *gorm.DB, hub *realtime.Hub, pub *realtime.Publisher) *Service {
	return &Service{DB: db, Hub: hub, Publisher: pub}
}

// Notify stores the notification and pushes it to the user's open
// connections. A realtime delivery failure never loses the notification.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, typ, title, message string, data map[string]interface{}) (*models.Notification, error) {
	n := models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		n.Data = datatypes.JSON(raw)
	}
	if err := s.DB.Create(&n).Error; err != nil {
		return nil, err
	}

	// with redis wired, the subscriber loop relays back into the hub;
	// direct hub delivery is the single-instance fallback
	if s.Publisher != nil {
		s.Publisher.PublishToUser(ctx, userID, &n)
	} else if s.Hub != nil {
		s.Hub.SendToUser(userID, &n)
	}
	return &n, nil
}

type Filter struct {
	IsRead *bool
	Type   string
	Limit  int
	Offset int
}

// List returns a user's notifications, newest first.
func (s *Service) List(userID uuid.UUID, filter Filter) ([]models.Notification, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	q := s.DB.Where("user_id = ?", userID)
	if filter.IsRead != nil {
		q = q.Where("is_read = ?", *filter.IsRead)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var notifications []models.Notification
	err := q.Order("created_at DESC").Limit(limit).Offset(filter.Offset).
		Find(&notifications).Error
	return notifications, err
}

// MarkRead flags one notification as read. Scoped to the owner so a user
// cannot touch someone else's rows.
func (s *Service) MarkRead(userID, notificationID uuid.UUID) error {
	res := s.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification and reports how many flipped.
func (s *Service) MarkAllRead(userID uuid.UUID) (int64, error) {
	res := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (s *Service) UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
