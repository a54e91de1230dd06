package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tradeskills/tradeskills-backend/internal/services/admin"
	"github.com/tradeskills/tradeskills-backend/internal/services/notification"
	"github.com/tradeskills/tradeskills-backend/internal/services/payment"
	"github.com/tradeskills/tradeskills-backend/internal/services/review"
	"github.com/tradeskills/tradeskills-backend/internal/services/session"
	"github.com/tradeskills/tradeskills-backend/internal/services/wallet"
)

// fail maps domain errors onto HTTP statuses: not-found 404, wrong actor 403,
// everything user-caused 400, the rest 500.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "Internal server error"

	switch {
	case errors.Is(err, wallet.ErrWalletNotFound),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, payment.ErrPackageNotFound),
		errors.Is(err, payment.ErrPaymentNotFound),
		errors.Is(err, admin.ErrUserNotFound),
		errors.Is(err, notification.ErrNotificationNotFound):
		status = fiber.StatusNotFound
		msg = err.Error()
	case errors.Is(err, session.ErrUnauthorized),
		errors.Is(err, review.ErrNotSessionPeer):
		status = fiber.StatusForbidden
		msg = err.Error()
	case errors.Is(err, wallet.ErrInsufficientCredits),
		errors.Is(err, wallet.ErrNoActiveLock),
		errors.Is(err, session.ErrInvalidStateTransition),
		errors.Is(err, session.ErrSessionFull),
		errors.Is(err, session.ErrAlreadyJoined),
		errors.Is(err, session.ErrNotParticipant),
		errors.Is(err, payment.ErrInvalidSignature),
		errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, review.ErrSessionNotCompleted),
		errors.Is(err, review.ErrReviewExists):
		status = fiber.StatusBadRequest
		msg = err.Error()
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

// currentUserID pulls the authenticated identity the JWT middleware attached.
func currentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	raw := c.Locals("userId")
	if raw == nil {
		return uuid.Nil, false
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
