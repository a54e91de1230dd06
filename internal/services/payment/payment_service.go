package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
	"gorm.io/gorm"

	"github.com/tradeskills/tradeskills-backend/internal/models"
	"github.com/tradeskills/tradeskills-backend/internal/services/wallet"
)

var (
	ErrPackageNotFound  = errors.New("credit package not found")
	ErrPaymentNotFound  = errors.New("payment record not found")
	ErrInvalidSignature = errors.New("invalid payment signature")
)

// Service wraps the Razorpay gateway: it creates orders for credit packages
// and awards credits only after verifying the gateway's HMAC signature. The
// wallet never sees an unverified payment.
type Service struct {
	DB            *gorm.DB
	Wallet        *wallet.Service
	Client        *razorpay.Client
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

func NewService(db *gorm.DB, walletSvc *wallet.Service) *Service {
	keyID := os.Getenv("RAZORPAY_KEY")
	keySecret := os.Getenv("RAZORPAY_SECRET")

	return &Service{
		DB:            db,
		Wallet:        walletSvc,
		Client:        razorpay.NewClient(keyID, keySecret),
		KeyID:         keyID,
		KeySecret:     keySecret,
		WebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
	}
}

func (s *Service) ListPackages() ([]models.CreditPackage, error) {
	var pkgs []models.CreditPackage
	if err := s.DB.Where("is_active = ?", true).Order("credits ASC").Find(&pkgs).Error; err != nil {
		return nil, err
	}
	return pkgs, nil
}

type OrderResult struct {
	PaymentID      uuid.UUID `json:"payment_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	KeyID          string    `json:"key"`
}

// CreateOrder opens a Razorpay order for a credit package and records a
// PENDING payment row referencing it.
func (s *Service) CreateOrder(userID, packageID uuid.UUID) (*OrderResult, error) {
	var pkg models.CreditPackage
	if err := s.DB.Where("id = ? AND is_active = ?", packageID, true).First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}

	orderData := map[string]interface{}{
		"amount":          pkg.Price,
		"currency":        "INR",
		"receipt":         fmt.Sprintf("credits_%s_%d", userID, time.Now().Unix()),
		"payment_capture": 1,
	}
	rzOrder, err := s.Client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create: %w", err)
	}

	orderID, ok := rzOrder["id"].(string)
	if !ok || orderID == "" {
		return nil, errors.New("razorpay order response missing id")
	}

	p := models.Payment{
		UserID:         userID,
		PackageID:      pkg.ID,
		GatewayOrderID: orderID,
		Amount:         pkg.Price,
		CreditsAwarded: pkg.Credits,
		Status:         models.PaymentPending,
	}
	if err := s.DB.Create(&p).Error; err != nil {
		return nil, err
	}

	return &OrderResult{
		PaymentID:      p.ID,
		GatewayOrderID: orderID,
		Amount:         pkg.Price,
		Currency:       "INR",
		KeyID:          s.KeyID,
	}, nil
}

// VerifyPayment checks the checkout signature (HMAC-SHA256 over
// "orderID|paymentID" with the key secret) and, on success, completes the
// payment and credits the wallet in one transaction. Re-verifying a payment
// that already completed finds no PENDING row and fails closed.
func (s *Service) VerifyPayment(userID uuid.UUID, orderID, gatewayPaymentID, signature string) (*models.Payment, error) {
	if !s.verifyCheckoutSignature(orderID, gatewayPaymentID, signature) {
		return nil, ErrInvalidSignature
	}

	var p models.Payment
	if err := s.DB.Where("gateway_order_id = ? AND user_id = ? AND status = ?",
		orderID, userID, models.PaymentPending).
		Preload("Package").First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if err := s.complete(&p, gatewayPaymentID); err != nil {
		return nil, err
	}

	// Reload so the caller sees the settled row, not the PENDING snapshot
	// we matched on.
	if err := s.DB.Preload("Package").First(&p, "id = ?", p.ID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook processes gateway callbacks. The signature is HMAC-SHA256
// over the raw body with the webhook secret. payment.captured completes a
// still-PENDING payment and awards its credits; payment.failed records the
// failure. Retransmitted events are no-ops once the PENDING row is gone.
func (s *Service) HandleWebhook(signature string, body []byte) error {
	mac := hmac.New(sha256.New, []byte(s.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("webhook payload: %w", err)
	}
	entity := ev.Payload.Payment.Entity

	switch ev.Event {
	case "payment.captured":
		var p models.Payment
		err := s.DB.Where("gateway_order_id = ? AND status = ?", entity.OrderID, models.PaymentPending).
			Preload("Package").First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.complete(&p, entity.ID)

	case "payment.failed":
		return s.DB.Model(&models.Payment{}).
			Where("gateway_order_id = ? AND status = ?", entity.OrderID, models.PaymentPending).
			Updates(map[string]interface{}{
				"status":         models.PaymentFailed,
				"failure_reason": entity.ErrorDescription,
			}).Error
	}
	return nil
}

func (s *Service) complete(p *models.Payment, gatewayPaymentID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", p.ID, models.PaymentPending).
			Updates(map[string]interface{}{
				"status":             models.PaymentCompleted,
				"gateway_payment_id": gatewayPaymentID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race with another verify/webhook; credits were
			// already awarded there.
			return nil
		}

		desc := "Credit purchase"
		if p.Package != nil {
			desc = fmt.Sprintf("Credit purchase - %s", p.Package.Name)
		}
		_, err := s.Wallet.AddCredits(tx, p.UserID, p.CreditsAwarded, desc, &p.ID)
		return err
	})
}

type PaymentFilter struct {
	Status models.PaymentStatus
	Limit  int
	Offset int
}

func (s *Service) ListPayments(userID uuid.UUID, filter PaymentFilter) ([]models.Payment, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	q := s.DB.Preload("Package").Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(filter.Offset)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var payments []models.Payment
	if err := q.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Service) verifyCheckoutSignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
