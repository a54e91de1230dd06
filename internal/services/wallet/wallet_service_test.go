package wallet

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradeskills/tradeskills-backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.CreditLock{},
		&models.Transaction{},
	))
	return db
}

func seedWallet(t *testing.T, db *gorm.DB, available int64) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	w := models.Wallet{
		UserID:           userID,
		AvailableCredits: available,
		TotalEarned:      available,
	}
	require.NoError(t, db.Create(&w).Error)
	return userID
}

func TestGetOrCreateGrantsStartingCredits(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := uuid.New()

	w, err := svc.GetOrCreate(db, userID, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 100, w.AvailableCredits)
	assert.EqualValues(t, 100, w.TotalEarned)
	assert.EqualValues(t, 0, w.LockedCredits)

	// second call returns the same wallet, no second grant
	again, err := svc.GetOrCreate(db, userID, 100)
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)
	assert.EqualValues(t, 100, again.AvailableCredits)
}

func TestLockCreditsMovesAvailableToLocked(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 100)
	sessionID := uuid.New()

	lock, err := svc.LockCredits(db, userID, 30, sessionID, "session booking")
	require.NoError(t, err)
	assert.EqualValues(t, 30, lock.Amount)
	assert.False(t, lock.IsReleased)

	w, err := svc.GetWallet(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 70, w.AvailableCredits)
	assert.EqualValues(t, 30, w.LockedCredits)
}

func TestLockCreditsInsufficientBalance(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 10)

	_, err := svc.LockCredits(db, userID, 30, uuid.New(), "session booking")
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	// balance untouched, no lock row
	w, err := svc.GetWallet(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, w.AvailableCredits)
	assert.EqualValues(t, 0, w.LockedCredits)

	locks, err := svc.GetLockedCredits(userID)
	require.NoError(t, err)
	assert.Empty(t, locks)
}

func TestLockCreditsExactBalance(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 30)

	_, err := svc.LockCredits(db, userID, 30, uuid.New(), "session booking")
	require.NoError(t, err)

	w, err := svc.GetWallet(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, w.AvailableCredits)
	assert.EqualValues(t, 30, w.LockedCredits)
}

func TestLockCreditsRejectsNonPositiveAmount(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 100)

	_, err := svc.LockCredits(db, userID, 0, uuid.New(), "session booking")
	assert.Error(t, err)
	_, err = svc.LockCredits(db, userID, -5, uuid.New(), "session booking")
	assert.Error(t, err)
}

func TestReleaseCreditsRefund(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 100)
	sessionID := uuid.New()

	_, err := svc.LockCredits(db, userID, 30, sessionID, "session booking")
	require.NoError(t, err)

	total, err := svc.ReleaseCredits(db, userID, sessionID, false)
	require.NoError(t, err)
	assert.EqualValues(t, 30, total)

	w, err := svc.GetWallet(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, w.AvailableCredits)
	assert.EqualValues(t, 0, w.LockedCredits)
	assert.EqualValues(t, 0, w.TotalSpent)

	trxs, err := svc.GetTransactions(userID, TransactionFilter{Type: models.TrxRefund})
	require.NoError(t, err)
	require.Len(t, trxs, 1)
	assert.EqualValues(t, 30, trxs[0].Amount)
	require.NotNil(t, trxs[0].SessionID)
	assert.Equal(t, sessionID, *trxs[0].SessionID)
}

func TestReleaseCreditsToHost(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 100)
	sessionID := uuid.New()

	_, err := svc.LockCredits(db, userID, 30, sessionID, "session booking")
	require.NoError(t, err)

	total, err := svc.ReleaseCredits(db, userID, sessionID, true)
	require.NoError(t, err)
	assert.EqualValues(t, 30, total)

	w, err := svc.GetWallet(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 70, w.AvailableCredits)
	assert.EqualValues(t, 0, w.LockedCredits)
	assert.EqualValues(t, 30, w.TotalSpent)

	trxs, err := svc.GetTransactions(userID, TransactionFilter{Type: models.TrxSessionPayment})
	require.NoError(t, err)
	require.Len(t, trxs, 1)
	assert.EqualValues(t, -30, trxs[0].Amount)
}

func TestReleaseCreditsSumsStackedLocks(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 100)
	sessionID := uuid.New()

	_, err := svc.LockCredits(db, userID, 20, sessionID, "session booking")
	require.NoError(t, err)
	_, err = svc.LockCredits(db, userID, 15, sessionID, "session booking")
	require.NoError(t, err)

	total, err := svc.ReleaseCredits(db, userID, sessionID, false)
	require.NoError(t, err)
	assert.EqualValues(t, 35, total)

	w, err := svc.GetWallet(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, w.AvailableCredits)
	assert.EqualValues(t, 0, w.LockedCredits)

	// single REFUND entry for the whole sum
	trxs, err := svc.GetTransactions(userID, TransactionFilter{Type: models.TrxRefund})
	require.NoError(t, err)
	require.Len(t, trxs, 1)
	assert.EqualValues(t, 35, trxs[0].Amount)
}

func TestReleaseCreditsNoActiveLock(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 100)

	_, err := svc.ReleaseCredits(db, userID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrNoActiveLock)
}

func TestReleaseCreditsIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 100)
	sessionID := uuid.New()

	_, err := svc.LockCredits(db, userID, 30, sessionID, "session booking")
	require.NoError(t, err)

	_, err = svc.ReleaseCredits(db, userID, sessionID, false)
	require.NoError(t, err)

	// second release finds nothing to release
	_, err = svc.ReleaseCredits(db, userID, sessionID, false)
	assert.ErrorIs(t, err, ErrNoActiveLock)

	// no double refund
	w, err := svc.GetWallet(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, w.AvailableCredits)

	trxs, err := svc.GetTransactions(userID, TransactionFilter{Type: models.TrxRefund})
	require.NoError(t, err)
	assert.Len(t, trxs, 1)
}

func TestReleaseScopedToSession(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 100)
	sessionA := uuid.New()
	sessionB := uuid.New()

	_, err := svc.LockCredits(db, userID, 30, sessionA, "session booking")
	require.NoError(t, err)
	_, err = svc.LockCredits(db, userID, 20, sessionB, "session booking")
	require.NoError(t, err)

	total, err := svc.ReleaseCredits(db, userID, sessionA, false)
	require.NoError(t, err)
	assert.EqualValues(t, 30, total)

	// session B's lock is untouched
	w, err := svc.GetWallet(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 80, w.AvailableCredits)
	assert.EqualValues(t, 20, w.LockedCredits)

	locks, err := svc.GetLockedCredits(userID)
	require.NoError(t, err)
	require.Len(t, locks, 1)
	assert.Equal(t, sessionB, locks[0].SessionID)
}

func TestAddCredits(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 100)
	paymentID := uuid.New()

	trx, err := svc.AddCredits(db, userID, 50, "Purchased starter pack", &paymentID)
	require.NoError(t, err)
	assert.Equal(t, models.TrxCreditPurchase, trx.Type)
	assert.EqualValues(t, 50, trx.Amount)

	w, err := svc.GetWallet(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 150, w.AvailableCredits)
	assert.EqualValues(t, 150, w.TotalEarned)
}

func TestCreditEarnings(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 100)
	sessionID := uuid.New()

	trx, err := svc.CreditEarnings(db, userID, 60, sessionID, "Earnings from session")
	require.NoError(t, err)
	assert.Equal(t, models.TrxSessionEarning, trx.Type)
	assert.EqualValues(t, 60, trx.Amount)

	w, err := svc.GetWallet(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 160, w.AvailableCredits)
	assert.EqualValues(t, 160, w.TotalEarned)
}

func TestAdjustPositiveGrowsTotalEarned(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 100)

	_, err := svc.Adjust(db, userID, 25, "Goodwill credit")
	require.NoError(t, err)

	w, err := svc.GetWallet(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 125, w.AvailableCredits)
	assert.EqualValues(t, 125, w.TotalEarned)
}

func TestAdjustNegativeMayGoBelowZero(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 10)

	_, err := svc.Adjust(db, userID, -40, "Chargeback")
	require.NoError(t, err)

	w, err := svc.GetWallet(userID)
	require.NoError(t, err)
	assert.EqualValues(t, -30, w.AvailableCredits)
	// total_earned untouched on deductions
	assert.EqualValues(t, 10, w.TotalEarned)
}

func TestGetTransactionsPagingAndOrder(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	userID := seedWallet(t, db, 1000)

	for i := 1; i <= 5; i++ {
		_, err := svc.Adjust(db, userID, int64(i), "batch")
		require.NoError(t, err)
	}

	page, err := svc.GetTransactions(userID, TransactionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	all, err := svc.GetTransactions(userID, TransactionFilter{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	next, err := svc.GetTransactions(userID, TransactionFilter{Limit: 50, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, next, 3)
}

func TestLedgerScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	alice := seedWallet(t, db, 100)
	bob := seedWallet(t, db, 100)

	_, err := svc.Adjust(db, alice, 5, "alice only")
	require.NoError(t, err)

	trxs, err := svc.GetTransactions(bob, TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, trxs)
}

func TestGetWalletNotFound(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)

	_, err := svc.GetWallet(uuid.New())
	assert.ErrorIs(t, err, ErrWalletNotFound)
}
