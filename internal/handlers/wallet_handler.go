package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/tradeskills/tradeskills-backend/internal/models"
	"github.com/tradeskills/tradeskills-backend/internal/services/wallet"
)

type WalletHandler struct {
	DB              *gorm.DB
	Wallet          *wallet.Service
	StartingCredits int64
}

// GetWallet returns the caller's balance, creating the wallet (with the
// starting grant) if registration somehow skipped it.
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var w *models.Wallet
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		w, err = h.Wallet.GetOrCreate(tx, userID, h.StartingCredits)
		return err
	})
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    w,
	})
}

// GetTransactions returns the caller's ledger, newest first. Supports
// ?type=, ?limit= and ?offset= query params.
func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
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

// GetLockedCredits lists the caller's active credit locks.
func (h *WalletHandler) GetLockedCredits(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	locks, err := h.Wallet.GetLockedCredits(userID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    locks,
	})
}
