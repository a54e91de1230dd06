package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradeskills/tradeskills-backend/internal/models"
	"github.com/tradeskills/tradeskills-backend/internal/services/payment"
)

type PaymentHandler struct {
	DB       *gorm.DB
	Payments *payment.Service
}

func (h *PaymentHandler) ListPackages(c *fiber.Ctx) error {
	pkgs, err := h.Payments.ListPackages()
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    pkgs,
	})
}

type CreateOrderReq struct {
	PackageID string `json:"package_id"`
}

func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateOrderReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	packageID, err := uuid.Parse(req.PackageID)
	if err != nil {
		return badRequest(c, "invalid package_id")
	}

	order, err := h.Payments.CreateOrder(userID, packageID)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

type VerifyPaymentReq struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// VerifyPayment confirms a checkout callback. On a valid signature the
// payment completes and the package's credits land in the caller's wallet.
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req VerifyPaymentReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return badRequest(c, "order id, payment id and signature are required")
	}

	p, err := h.Payments.VerifyPayment(userID, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Payment verified",
		"data":    p,
	})
}

// Webhook handles gateway callbacks. Always 200 on verified events so the
// gateway stops retrying; signature failures get a 400.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	signature := c.Get("X-Razorpay-Signature")
	if err := h.Payments.HandleWebhook(signature, c.Body()); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// ListPayments returns the caller's purchase history. Supports ?status=,
// ?limit=, ?offset=.
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	filter := payment.PaymentFilter{
		Status: models.PaymentStatus(c.Query("status")),
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}

	payments, err := h.Payments.ListPayments(userID, filter)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    payments,
	})
}
