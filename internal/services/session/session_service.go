package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradeskills/tradeskills-backend/internal/models"
	"github.com/tradeskills/tradeskills-backend/internal/services/wallet"
)

var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrUnauthorized           = errors.New("not authorized for this session action")
	ErrInvalidStateTransition = errors.New("session is not in a valid state for this action")
	ErrSessionFull            = errors.New("session has no remaining capacity")
	ErrAlreadyJoined          = errors.New("already a participant of this session")
	ErrNotParticipant         = errors.New("not an active participant of this session")
)

// Service owns the session lifecycle and its credit settlement. Every status
// transition is a compare-and-swap on the stored status, executed in the same
// DB transaction as the wallet writes it triggers, so two racing settlements
// can never both apply: the loser's CAS matches zero rows and the whole
// transaction rolls back.
type Service struct {
	DB     *gorm.DB
	Wallet *wallet.Service
}

func NewService(db *gorm.DB, walletSvc *wallet.Service) *Service {
	return &Service{DB: db, Wallet: walletSvc}
}

type CreateInput struct {
	Title           string
	Description     string
	SkillID         *uuid.UUID
	CreditCost      int64
	MaxParticipants int
	ScheduledAt     int64
}

func (s *Service) Create(hostID uuid.UUID, in CreateInput) (*models.Session, error) {
	if in.CreditCost <= 0 {
		return nil, errors.New("credit cost must be greater than zero")
	}
	if in.MaxParticipants < 1 {
		in.MaxParticipants = 1
	}

	sess := models.Session{
		HostID:          hostID,
		SkillID:         in.SkillID,
		Title:           in.Title,
		Description:     in.Description,
		CreditCost:      in.CreditCost,
		MaxParticipants: in.MaxParticipants,
		ScheduledAt:     in.ScheduledAt,
		Status:          models.SessionPending,
	}
	if err := s.DB.Create(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

// Join adds the user as a participant and locks the session's credit cost in
// their wallet, all in one transaction. Requires a PENDING session with free
// capacity; the host cannot join their own session.
func (s *Service) Join(sessionID, userID uuid.UUID) (*models.Session, error) {
	var sess models.Session
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := findSession(tx, sessionID, &sess); err != nil {
			return err
		}
		if sess.HostID == userID {
			return ErrUnauthorized
		}
		if sess.Status != models.SessionPending {
			return ErrInvalidStateTransition
		}

		var existing int64
		if err := tx.Model(&models.SessionParticipant{}).
			Where("session_id = ? AND user_id = ?", sessionID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyJoined
		}

		reason := fmt.Sprintf("Session booking: %s", sess.Title)
		if _, err := s.Wallet.LockCredits(tx, userID, sess.CreditCost, sessionID, reason); err != nil {
			return err
		}

		p := models.SessionParticipant{SessionID: sessionID, UserID: userID}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		// Recount after insert so two joins racing for the last slot
		// cannot both land; the overflow aborts and refunds via rollback.
		var count int64
		if err := tx.Model(&models.SessionParticipant{}).
			Where("session_id = ? AND left_at IS NULL", sessionID).Count(&count).Error; err != nil {
			return err
		}
		if count > int64(sess.MaxParticipants) {
			return ErrSessionFull
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(sessionID)
}

// Confirm moves a PENDING session to CONFIRMED once the host has a meeting
// room. Meeting identifiers are stored opaquely; the vendor owns their shape.
// Leave withdraws a participant before the session runs: the left_at mark
// frees their slot and their locked credits come back as a REFUND. Allowed
// while the session is PENDING or CONFIRMED; once it starts, only the host's
// settlement touches the locks. The unique participant row means a leaver
// cannot rejoin the same session.
func (s *Service) Leave(sessionID, userID uuid.UUID) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var sess models.Session
		if err := findSession(tx, sessionID, &sess); err != nil {
			return err
		}
		if sess.Status != models.SessionPending && sess.Status != models.SessionConfirmed {
			return ErrInvalidStateTransition
		}

		res := tx.Model(&models.SessionParticipant{}).
			Where("session_id = ? AND user_id = ? AND left_at IS NULL", sessionID, userID).
			Update("left_at", time.Now().UnixMilli())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotParticipant
		}

		_, err := s.Wallet.ReleaseCredits(tx, userID, sessionID, false)
		return err
	})
}

func (s *Service) Confirm(sessionID, hostID uuid.UUID, meetingID, meetingLink string) (*models.Session, error) {
	return s.transition(sessionID, hostID, models.SessionPending, models.SessionConfirmed,
		map[string]interface{}{
			"meeting_id":   meetingID,
			"meeting_link": meetingLink,
		})
}

// Start moves a CONFIRMED session to IN_PROGRESS.
func (s *Service) Start(sessionID, hostID uuid.UUID) (*models.Session, error) {
	return s.transition(sessionID, hostID, models.SessionConfirmed, models.SessionInProgress,
		map[string]interface{}{
			"started_at": time.Now().UnixMilli(),
		})
}

// End records the meeting's end time. The session stays IN_PROGRESS; the
// explicit Complete call performs settlement.
func (s *Service) End(sessionID, hostID uuid.UUID) (*models.Session, error) {
	return s.transition(sessionID, hostID, models.SessionInProgress, models.SessionInProgress,
		map[string]interface{}{
			"ended_at": time.Now().UnixMilli(),
		})
}

// Complete settles an IN_PROGRESS session: each participant's locked credits
// are consumed as payment and the host earns the sum, one SESSION_PAYMENT
// entry per participant plus one SESSION_EARNING entry for the host. The
// status CAS and every wallet write commit or roll back as one unit.
// Completing an already COMPLETED session is a benign no-op.
func (s *Service) Complete(sessionID, hostID uuid.UUID) (*models.Session, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var sess models.Session
		if err := findSession(tx, sessionID, &sess); err != nil {
			return err
		}
		if sess.HostID != hostID {
			return ErrUnauthorized
		}
		if sess.Status == models.SessionCompleted {
			return nil
		}
		if sess.Status != models.SessionInProgress {
			return ErrInvalidStateTransition
		}

		res := tx.Model(&models.Session{}).
			Where("id = ? AND status = ?", sessionID, models.SessionInProgress).
			Update("status", models.SessionCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent settlement won the swap.
			return ErrInvalidStateTransition
		}

		var participants []models.SessionParticipant
		if err := tx.Where("session_id = ? AND left_at IS NULL", sessionID).
			Find(&participants).Error; err != nil {
			return err
		}

		var total int64
		for _, p := range participants {
			released, err := s.Wallet.ReleaseCredits(tx, p.UserID, sessionID, true)
			if err != nil {
				return err
			}
			total += released
		}

		if total > 0 {
			desc := fmt.Sprintf("Earning: %s", sess.Title)
			if _, err := s.Wallet.CreditEarnings(tx, hostID, total, sessionID, desc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(sessionID)
}

// Cancel refunds every participant's unreleased locks and marks the session
// CANCELLED. Allowed from PENDING or CONFIRMED, host only. Cancelling an
// already CANCELLED session is a benign no-op: there is nothing left to
// refund.
func (s *Service) Cancel(sessionID, actorID uuid.UUID) (*models.Session, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var sess models.Session
		if err := findSession(tx, sessionID, &sess); err != nil {
			return err
		}
		if sess.HostID != actorID {
			return ErrUnauthorized
		}
		return s.cancelTx(tx, &sess)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(sessionID)
}

// CancelTx runs the cancellation settlement inside the caller's transaction
// with no actor check. The admin override path uses it after its own authz.
func (s *Service) CancelTx(tx *gorm.DB, sessionID uuid.UUID) error {
	var sess models.Session
	if err := findSession(tx, sessionID, &sess); err != nil {
		return err
	}
	return s.cancelTx(tx, &sess)
}

func (s *Service) cancelTx(tx *gorm.DB, sess *models.Session) error {
	if sess.Status == models.SessionCancelled {
		return nil
	}
	if sess.Status != models.SessionPending && sess.Status != models.SessionConfirmed {
		return ErrInvalidStateTransition
	}

	res := tx.Model(&models.Session{}).
		Where("id = ? AND status = ?", sess.ID, sess.Status).
		Update("status", models.SessionCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidStateTransition
	}

	var participants []models.SessionParticipant
	if err := tx.Where("session_id = ?", sess.ID).Find(&participants).Error; err != nil {
		return err
	}
	for _, p := range participants {
		if _, err := s.Wallet.ReleaseCredits(tx, p.UserID, sess.ID, false); err != nil {
			// Participants without an unreleased lock have nothing to
			// refund; everyone else must settle or the tx rolls back.
			if errors.Is(err, wallet.ErrNoActiveLock) {
				continue
			}
			return err
		}
	}
	return nil
}

// transition performs a host-only CAS from one status to another, applying
// extra column updates in the same statement.
func (s *Service) transition(sessionID, hostID uuid.UUID, from, to models.SessionStatus, extra map[string]interface{}) (*models.Session, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var sess models.Session
		if err := findSession(tx, sessionID, &sess); err != nil {
			return err
		}
		if sess.HostID != hostID {
			return ErrUnauthorized
		}
		if sess.Status != from {
			return ErrInvalidStateTransition
		}

		updates := map[string]interface{}{"status": to}
		for k, v := range extra {
			updates[k] = v
		}
		res := tx.Model(&models.Session{}).
			Where("id = ? AND status = ?", sessionID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidStateTransition
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(sessionID)
}

func (s *Service) GetByID(sessionID uuid.UUID) (*models.Session, error) {
	var sess models.Session
	if err := s.DB.Preload("Host").Preload("Skill").Preload("Participants").
		Preload("Participants.User").
		First(&sess, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// ListForUser returns sessions the user hosts, attends, or both.
func (s *Service) ListForUser(userID uuid.UUID, kind string) ([]models.Session, error) {
	q := s.DB.Preload("Skill").Order("created_at DESC")

	switch kind {
	case "hosted":
		q = q.Where("host_id = ?", userID)
	case "learning":
		q = q.Where("id IN (?)", s.DB.Model(&models.SessionParticipant{}).
			Select("session_id").Where("user_id = ?", userID))
	default:
		q = q.Where("host_id = ? OR id IN (?)", userID,
			s.DB.Model(&models.SessionParticipant{}).
				Select("session_id").Where("user_id = ?", userID))
	}

	var sessions []models.Session
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListPublic returns joinable sessions, optionally filtered by skill.
func (s *Service) ListPublic(skillID *uuid.UUID, limit, offset int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 20
	}

	q := s.DB.Preload("Host").Preload("Skill").
		Where("status = ?", models.SessionPending).
		Order("scheduled_at ASC").Limit(limit).Offset(offset)
	if skillID != nil {
		q = q.Where("skill_id = ?", *skillID)
	}

	var sessions []models.Session
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func findSession(tx *gorm.DB, sessionID uuid.UUID, out *models.Session) error {
	if err := tx.First(out, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}
