package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradeskills/tradeskills-backend/internal/models"
	"github.com/tradeskills/tradeskills-backend/internal/services/notification"
	"github.com/tradeskills/tradeskills-backend/internal/services/session"
)

type SessionHandler struct {
	DB            *gorm.DB
	Sessions      *session.Service
	Notifications *notification.Service
}

type CreateSessionReq struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	SkillID         string `json:"skill_id"`
	CreditCost      int64  `json:"credit_cost"`
	MaxParticipants int    `json:"max_participants"`
	ScheduledAt     int64  `json:"scheduled_at"`
}

func (h *SessionHandler) Create(c *fiber.Ctx) error {
	hostID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateSessionReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	errs := FieldErrors{}
	if req.Title == "" {
		errs.Add("title", "Title is required")
	}
	if req.CreditCost <= 0 {
		errs.Add("credit_cost", "Credit cost must be greater than zero")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	in := session.CreateInput{
		Title:           req.Title,
		Description:     req.Description,
		CreditCost:      req.CreditCost,
		MaxParticipants: req.MaxParticipants,
		ScheduledAt:     req.ScheduledAt,
	}
	if req.SkillID != "" {
		skillID, err := uuid.Parse(req.SkillID)
		if err != nil {
			return badRequest(c, "invalid skill_id")
		}
		in.SkillID = &skillID
	}

	sess, err := h.Sessions.Create(hostID, in)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    sess,
	})
}

// ListPublic lists joinable sessions. Supports ?skill_id=, ?limit=, ?offset=.
func (h *SessionHandler) ListPublic(c *fiber.Ctx) error {
	var skillID *uuid.UUID
	if raw := c.Query("skill_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid skill_id")
		}
		skillID = &id
	}

	sessions, err := h.Sessions.ListPublic(skillID, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    sessions,
	})
}

// ListMine lists the caller's sessions. ?role=hosted|learning narrows the view.
func (h *SessionHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	sessions, err := h.Sessions.ListForUser(userID, c.Query("role"))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    sessions,
	})
}

func (h *SessionHandler) GetByID(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	sess, err := h.Sessions.GetByID(sessionID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    sess,
	})
}

// Join books a seat, locking the session's credit cost in the caller's wallet.
func (h *SessionHandler) Join(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	sess, err := h.Sessions.Join(sessionID, userID)
	if err != nil {
		return fail(c, err)
	}

	h.notify(c, sess, "session.joined")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Joined session",
		"data":    sess,
	})
}

type ConfirmSessionReq struct {
	MeetingID   string `json:"meeting_id"`
	MeetingLink string `json:"meeting_link"`
}

func (h *SessionHandler) Leave(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	if err := h.Sessions.Leave(sessionID, userID); err != nil {
		return fail(c, err)
	}

	sess, err := h.Sessions.GetByID(sessionID)
	if err != nil {
		return fail(c, err)
	}
	h.notify(c, sess, "session.left")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Left session",
		"data":    sess,
	})
}

func (h *SessionHandler) Confirm(c *fiber.Ctx) error {
	hostID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	var req ConfirmSessionReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	sess, err := h.Sessions.Confirm(sessionID, hostID, req.MeetingID, req.MeetingLink)
	if err != nil {
		return fail(c, err)
	}

	h.notify(c, sess, "session.confirmed")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Session confirmed",
		"data":    sess,
	})
}

func (h *SessionHandler) Start(c *fiber.Ctx) error {
	return h.hostTransition(c, "session.started", "Session started", h.Sessions.Start)
}

func (h *SessionHandler) End(c *fiber.Ctx) error {
	return h.hostTransition(c, "session.ended", "Session ended", h.Sessions.End)
}

// Complete settles the session: locked credits move to the host, the host is
// credited once, participants are notified.
func (h *SessionHandler) Complete(c *fiber.Ctx) error {
	return h.hostTransition(c, "session.completed", "Session completed", h.Sessions.Complete)
}

// Cancel refunds every participant's locked credits and closes the session.
func (h *SessionHandler) Cancel(c *fiber.Ctx) error {
	return h.hostTransition(c, "session.cancelled", "Session cancelled", h.Sessions.Cancel)
}

func (h *SessionHandler) hostTransition(c *fiber.Ctx, event, msg string,
	fn func(sessionID, actorID uuid.UUID) (*models.Session, error)) error {

	actorID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	sess, err := fn(sessionID, actorID)
	if err != nil {
		return fail(c, err)
	}

	h.notify(c, sess, event)

	return c.JSON(fiber.Map{
		"success": true,
		"message": msg,
		"data":    sess,
	})
}

// notify records a lifecycle event for the host and every active participant
// and pushes it over the realtime layer. A notification failure never fails
// the request that caused it.
func (h *SessionHandler) notify(c *fiber.Ctx, sess *models.Session, event string) {
	if sess == nil || h.Notifications == nil {
		return
	}

	data := map[string]interface{}{
		"session_id": sess.ID,
		"status":     sess.Status,
	}
	message := fmt.Sprintf("%s: %s", eventTitle(event), sess.Title)

	ctx := context.Background()
	recipients := []uuid.UUID{sess.HostID}
	for _, p := range sess.Participants {
		if p.LeftAt == nil {
			recipients = append(recipients, p.UserID)
		}
	}
	for _, id := range recipients {
		if _, err := h.Notifications.Notify(ctx, id, event, eventTitle(event), message, data); err != nil {
			log.Printf("session notification failed for user %s: %v", id, err)
		}
	}
}

func eventTitle(event string) string {
	switch event {
	case "session.joined":
		return "New participant"
	case "session.left":
		return "Participant left"
	case "session.confirmed":
		return "Session confirmed"
	case "session.started":
		return "Session started"
	case "session.ended":
		return "Session ended"
	case "session.completed":
		return "Session completed"
	case "session.cancelled":
		return "Session cancelled"
	}
	return "Session update"
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}
