package admin

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tradeskills/tradeskills-backend/internal/models"
	"github.com/tradeskills/tradeskills-backend/internal/services/session"
	"github.com/tradeskills/tradeskills-backend/internal/services/wallet"
)

var ErrUserNotFound = errors.New("user not found")

type Service struct {
	DB      *gorm.DB
	Wallet  *wallet.Service
	Session *session.Service
}

func NewService(db *gorm.DB, walletSvc *wallet.Service, sessionSvc *session.Service) *Service {
	return &Service{DB: db, Wallet: walletSvc, Session: sessionSvc}
}

// AdjustCredits applies an admin override to a user's available balance and
// records both an ADMIN_ADJUSTMENT ledger entry and an audit action. adminID
// must be the real acting admin; a zero id is a programming error, not a
// value to substitute.
func (s *Service) AdjustCredits(userID uuid.UUID, amount int64, reason string, adminID uuid.UUID) (*models.Wallet, error) {
	if adminID == uuid.Nil {
		return nil, errors.New("admin id is required for credit adjustments")
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		desc := fmt.Sprintf("Admin adjustment: %s", reason)
		if _, err := s.Wallet.Adjust(tx, userID, amount, desc); err != nil {
			return err
		}

		verb := "Added"
		if amount < 0 {
			verb = "Deducted"
		}
		abs := amount
		if abs < 0 {
			abs = -abs
		}
		meta, _ := json.Marshal(map[string]interface{}{"amount": amount, "reason": reason})
		action := models.AdminAction{
			AdminID:      adminID,
			TargetUserID: &userID,
			Action:       models.ActionCreditAdjustment,
			Description:  fmt.Sprintf("%s %d credits: %s", verb, abs, reason),
			Metadata:     datatypes.JSON(meta),
		}
		return tx.Create(&action).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Wallet.GetWallet(userID)
}

// CancelSession runs the same refund settlement as a host cancellation, with
// the admin recorded in the audit trail. Idempotent: a second call finds the
// session already CANCELLED and changes nothing.
func (s *Service) CancelSession(sessionID uuid.UUID, reason string, adminID uuid.UUID) error {
	if adminID == uuid.Nil {
		return errors.New("admin id is required for session cancellation")
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.Session.CancelTx(tx, sessionID); err != nil {
			return err
		}

		meta, _ := json.Marshal(map[string]interface{}{"session_id": sessionID, "reason": reason})
		action := models.AdminAction{
			AdminID:     adminID,
			Action:      models.ActionSessionCancelled,
			Description: fmt.Sprintf("Admin cancelled session: %s", reason),
			Metadata:    datatypes.JSON(meta),
		}
		return tx.Create(&action).Error
	})
}

// SuspendUser deactivates the account and cancels every PENDING or CONFIRMED
// session the user hosts, refunding their participants, all in one
// transaction. A suspended host can never start a session, so leaving those
// bookings live would strand the learners' locked credits.
func (s *Service) SuspendUser(userID uuid.UUID, reason string, adminID uuid.UUID) error {
	return s.setUserActive(userID, false, models.ActionUserSuspended, reason, adminID)
}

func (s *Service) RestoreUser(userID uuid.UUID, reason string, adminID uuid.UUID) error {
	return s.setUserActive(userID, true, models.ActionUserRestored, reason, adminID)
}

func (s *Service) setUserActive(userID uuid.UUID, active bool, action models.AdminActionType, reason string, adminID uuid.UUID) error {
	if adminID == uuid.Nil {
		return errors.New("admin id is required for user moderation")
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Update("is_active", active)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}

		if !active {
			var hosted []models.Session
			err := tx.Where("host_id = ? AND status IN ?", userID,
				[]models.SessionStatus{models.SessionPending, models.SessionConfirmed}).
				Find(&hosted).Error
			if err != nil {
				return err
			}
			for _, sess := range hosted {
				if err := s.Session.CancelTx(tx, sess.ID); err != nil {
					return err
				}
			}
		}

		entry := models.AdminAction{
			AdminID:      adminID,
			TargetUserID: &userID,
			Action:       action,
			Description:  reason,
		}
		return tx.Create(&entry).Error
	})
}

type SessionFilter struct {
	Status models.SessionStatus
	HostID *uuid.UUID
	Limit  int
	Offset int
}

func (s *Service) ListSessions(filter SessionFilter) ([]models.Session, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	q := s.DB.Order("created_at DESC").Limit(limit).Offset(filter.Offset)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.HostID != nil {
		q = q.Where("host_id = ?", *filter.HostID)
	}

	var sessions []models.Session
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Service) ListActions(limit, offset int) ([]models.AdminAction, error) {
	if limit <= 0 {
		limit = 50
	}

	var actions []models.AdminAction
	if err := s.DB.Preload("Admin").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

func (s *Service) ListUsers(limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 20
	}

	var users []models.User
	if err := s.DB.Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
