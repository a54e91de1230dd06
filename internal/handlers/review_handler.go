package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tradeskills/tradeskills-backend/internal/services/review"
)

type ReviewHandler struct {
	Reviews *review.Service
}

type CreateReviewReq struct {
	SessionID  string `json:"session_id"`
	ReceiverID string `json:"receiver_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateReviewReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return badRequest(c, "invalid session_id")
	}
	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		return badRequest(c, "invalid receiver_id")
	}

	rev, err := h.Reviews.Create(userID, review.CreateInput{
		SessionID:  sessionID,
		ReceiverID: receiverID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Review submitted",
		"data":    rev,
	})
}

// ListForUser returns the reviews a user has received plus their aggregate
// rating. Public: ratings are how learners pick a host.
func (h *ReviewHandler) ListForUser(c *fiber.Ctx) error {
	receiverID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	reviews, err := h.Reviews.ListForUser(receiverID, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	summary, err := h.Reviews.Summary(receiverID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"reviews": reviews,
			"rating":  summary,
		},
	})
}
