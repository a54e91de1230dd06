package wallet

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradeskills/tradeskills-backend/internal/models"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNoActiveLock        = errors.New("no active credit locks found for this session")
)

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// GetOrCreate returns the user's wallet, creating it with the given starting
// grant if it does not exist yet. Called at registration and on first read.
func (s *Service) GetOrCreate(tx *gorm.DB, userID uuid.UUID, startingGrant int64) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.Where("user_id = ?", userID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	w = models.Wallet{
		UserID:           userID,
		AvailableCredits: startingGrant,
		TotalEarned:      startingGrant,
	}
	if err := tx.Create(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// LockCredits reserves amount credits against a session: available -> locked,
// plus a CreditLock row. Must run inside a DB transaction. Repeated calls for
// the same session stack additional locks; they are summed at release time.
func (s *Service) LockCredits(tx *gorm.DB, userID uuid.UUID, amount int64, sessionID uuid.UUID, reason string) (*models.CreditLock, error) {
	if amount <= 0 {
		return nil, errors.New("amount to lock must be greater than zero")
	}

	w, err := s.find(tx, userID)
	if err != nil {
		return nil, err
	}

	// Balance guard lives in the WHERE clause so a concurrent lock cannot
	// drive available_credits negative.
	res := tx.Model(&models.Wallet{}).
		Where("id = ? AND available_credits >= ?", w.ID, amount).
		Updates(map[string]interface{}{
			"available_credits": gorm.Expr("available_credits - ?", amount),
			"locked_credits":    gorm.Expr("locked_credits + ?", amount),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientCredits
	}

	lock := models.CreditLock{
		WalletID:  w.ID,
		SessionID: sessionID,
		Amount:    amount,
		Reason:    reason,
	}
	if err := tx.Create(&lock).Error; err != nil {
		return nil, err
	}
	return &lock, nil
}

// ReleaseCredits settles every unreleased lock the user holds on a session.
// toHost=true consumes the credits (session completed): locked -> total_spent,
// one SESSION_PAYMENT entry. toHost=false refunds them (session cancelled):
// locked -> available, one REFUND entry. Must run inside a DB transaction.
func (s *Service) ReleaseCredits(tx *gorm.DB, userID uuid.UUID, sessionID uuid.UUID, toHost bool) (int64, error) {
	w, err := s.find(tx, userID)
	if err != nil {
		return 0, err
	}

	var locks []models.CreditLock
	if err := tx.Where("wallet_id = ? AND session_id = ? AND is_released = ?", w.ID, sessionID, false).
		Find(&locks).Error; err != nil {
		return 0, err
	}
	if len(locks) == 0 {
		return 0, ErrNoActiveLock
	}

	var total int64
	for _, l := range locks {
		total += l.Amount
	}

	// Mark the locks released first, keyed on is_released=false. If a
	// concurrent settlement already claimed any of them the row count will
	// not match and the whole transaction rolls back.
	now := time.Now().UnixMilli()
	res := tx.Model(&models.CreditLock{}).
		Where("wallet_id = ? AND session_id = ? AND is_released = ?", w.ID, sessionID, false).
		Updates(map[string]interface{}{
			"is_released": true,
			"released_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected != int64(len(locks)) {
		return 0, fmt.Errorf("credit locks for session %s changed concurrently", sessionID)
	}

	updates := map[string]interface{}{
		"locked_credits": gorm.Expr("locked_credits - ?", total),
	}
	if toHost {
		updates["total_spent"] = gorm.Expr("total_spent + ?", total)
	} else {
		updates["available_credits"] = gorm.Expr("available_credits + ?", total)
	}
	if err := tx.Model(&models.Wallet{}).Where("id = ?", w.ID).Updates(updates).Error; err != nil {
		return 0, err
	}

	trx := models.Transaction{
		WalletID:    w.ID,
		SessionID:   &sessionID,
		Type:        models.TrxRefund,
		Amount:      total,
		Description: "Refund for cancelled session",
		Status:      models.TrxStatusCompleted,
	}
	if toHost {
		trx.Type = models.TrxSessionPayment
		trx.Amount = -total
		trx.Description = "Payment for completed session"
	}
	if err := tx.Create(&trx).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// AddCredits posts a credit purchase: available and total_earned both grow by
// amount, with a CREDIT_PURCHASE ledger entry referencing the payment.
func (s *Service) AddCredits(tx *gorm.DB, userID uuid.UUID, amount int64, description string, paymentID *uuid.UUID) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, errors.New("amount to add must be greater than zero")
	}

	w, err := s.find(tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Model(&models.Wallet{}).Where("id = ?", w.ID).
		Updates(map[string]interface{}{
			"available_credits": gorm.Expr("available_credits + ?", amount),
			"total_earned":      gorm.Expr("total_earned + ?", amount),
		}).Error; err != nil {
		return nil, err
	}

	trx := models.Transaction{
		WalletID:    w.ID,
		PaymentID:   paymentID,
		Type:        models.TrxCreditPurchase,
		Amount:      amount,
		Description: description,
		Status:      models.TrxStatusCompleted,
	}
	if err := tx.Create(&trx).Error; err != nil {
		return nil, err
	}
	return &trx, nil
}

// CreditEarnings posts the host side of a completed session: available and
// total_earned grow by amount, with a SESSION_EARNING ledger entry.
func (s *Service) CreditEarnings(tx *gorm.DB, userID uuid.UUID, amount int64, sessionID uuid.UUID, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, errors.New("amount to credit must be greater than zero")
	}

	w, err := s.find(tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Model(&models.Wallet{}).Where("id = ?", w.ID).
		Updates(map[string]interface{}{
			"available_credits": gorm.Expr("available_credits + ?", amount),
			"total_earned":      gorm.Expr("total_earned + ?", amount),
		}).Error; err != nil {
		return nil, err
	}

	trx := models.Transaction{
		WalletID:    w.ID,
		SessionID:   &sessionID,
		Type:        models.TrxSessionEarning,
		Amount:      amount,
		Description: description,
		Status:      models.TrxStatusCompleted,
	}
	if err := tx.Create(&trx).Error; err != nil {
		return nil, err
	}
	return &trx, nil
}

// Adjust applies an admin credit adjustment. Amount may be negative; the
// balance is allowed to go below zero (matches the admin override contract).
// total_earned only grows for positive adjustments.
func (s *Service) Adjust(tx *gorm.DB, userID uuid.UUID, amount int64, description string) (*models.Transaction, error) {
	w, err := s.find(tx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"available_credits": gorm.Expr("available_credits + ?", amount),
	}
	if amount > 0 {
		updates["total_earned"] = gorm.Expr("total_earned + ?", amount)
	}
	if err := tx.Model(&models.Wallet{}).Where("id = ?", w.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	trx := models.Transaction{
		WalletID:    w.ID,
		Type:        models.TrxAdminAdjustment,
		Amount:      amount,
		Description: description,
		Status:      models.TrxStatusCompleted,
	}
	if err := tx.Create(&trx).Error; err != nil {
		return nil, err
	}
	return &trx, nil
}

// TransactionFilter narrows and pages the ledger read path.
type TransactionFilter struct {
	Type   models.TransactionType
	Limit  int
	Offset int
}

// GetTransactions returns the user's ledger entries newest-first. The wallet
// lookup is scoped to the given user id; handlers pass the authenticated
// identity so one user can never read another's ledger.
func (s *Service) GetTransactions(userID uuid.UUID, filter TransactionFilter) ([]models.Transaction, error) {
	w, err := s.find(s.DB, userID)
	if err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	q := s.DB.Where("wallet_id = ?", w.ID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var trxs []models.Transaction
	if err := q.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&trxs).Error; err != nil {
		return nil, err
	}
	return trxs, nil
}

// GetWallet returns the wallet without creating it.
func (s *Service) GetWallet(userID uuid.UUID) (*models.Wallet, error) {
	return s.find(s.DB, userID)
}

// GetLockedCredits returns the user's unreleased locks, newest first.
func (s *Service) GetLockedCredits(userID uuid.UUID) ([]models.CreditLock, error) {
	w, err := s.find(s.DB, userID)
	if err != nil {
		return nil, err
	}

	var locks []models.CreditLock
	if err := s.DB.Where("wallet_id = ? AND is_released = ?", w.ID, false).
		Order("locked_at DESC").Find(&locks).Error; err != nil {
		return nil, err
	}
	return locks, nil
}

func (s *Service) find(tx *gorm.DB, userID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	if err := tx.Where("user_id = ?", userID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}
