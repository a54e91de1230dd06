package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradeskills/tradeskills-backend/internal/models"
	"github.com/tradeskills/tradeskills-backend/internal/services/admin"
	"github.com/tradeskills/tradeskills-backend/internal/services/wallet"
)

type AdminHandler struct {
	DB     *gorm.DB
	Admin  *admin.Service
	Wallet *wallet.Service
}

type AdjustCreditsReq struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// AdjustCredits applies a manual credit correction to a user's wallet. The
// adjustment and its audit entry commit together.
func (h *AdminHandler) AdjustCredits(c *fiber.Ctx) error {
	adminID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req AdjustCreditsReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return badRequest(c, "invalid user_id")
	}
	if req.Amount == 0 {
		return badRequest(c, "amount must be non-zero")
	}
	if req.Reason == "" {
		return badRequest(c, "reason is required")
	}

	w, err := h.Admin.AdjustCredits(userID, req.Amount, req.Reason, adminID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Credits adjusted",
		"data":    w,
	})
}

type AdminReasonReq struct {
	Reason string `json:"reason"`
}

// CancelSession force-cancels a session regardless of who hosts it,
// refunding every participant's locked credits.
func (h *AdminHandler) CancelSession(c *fiber.Ctx) error {
	adminID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	var req AdminReasonReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.Admin.CancelSession(sessionID, req.Reason, adminID); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Session cancelled",
	})
}

func (h *AdminHandler) SuspendUser(c *fiber.Ctx) error {
	return h.userAction(c, "User suspended", h.Admin.SuspendUser)
}

func (h *AdminHandler) RestoreUser(c *fiber.Ctx) error {
	return h.userAction(c, "User restored", h.Admin.RestoreUser)
}

func (h *AdminHandler) userAction(c *fiber.Ctx, msg string,
	fn func(userID uuid.UUID, reason string, adminID uuid.UUID) error) error {

	adminID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var req AdminReasonReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	if err := fn(userID, req.Reason, adminID); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": msg,
	})
}

// ListSessions gives admins the full session table. Supports ?status=,
// ?host_id=, ?limit=, ?offset=.
func (h *AdminHandler) ListSessions(c *fiber.Ctx) error {
	filter := admin.SessionFilter{
		Status: models.SessionStatus(c.Query("status")),
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("host_id"); raw != "" {
		hostID, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid host_id")
		}
		filter.HostID = &hostID
	}

	sessions, err := h.Admin.ListSessions(filter)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    sessions,
	})
}

func (h *AdminHandler) ListActions(c *fiber.Ctx) error {
	actions, err := h.Admin.ListActions(c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    actions,
	})
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Admin.ListUsers(c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
	})
}

// GetUserTransactions lets an admin read any user's ledger. Supports ?type=,
// ?limit=, ?offset=.
func (h *AdminHandler) GetUserTransactions(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	filter := wallet.TransactionFilter{
		Type:   models.TransactionType(c.Query("type")),
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}

	trxs, err := h.Wallet.GetTransactions(userID, filter)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    trxs,
	})
}
