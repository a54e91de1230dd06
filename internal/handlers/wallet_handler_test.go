package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradeskills/tradeskills-backend/internal/models"
	"github.com/tradeskills/tradeskills-backend/internal/services/wallet"
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

// asUser stands in for the JWT middleware chain in tests.
func asUser(userID uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userId", userID.String())
		c.Locals("role", "user")
		return c.Next()
	}
}

func newWalletApp(t *testing.T, db *gorm.DB, userID uuid.UUID) *fiber.App {
	t.Helper()

	h := &WalletHandler{DB: db, Wallet: wallet.NewService(db), StartingCredits: 100}

	app := fiber.New()
	app.Use(asUser(userID))
	app.Get("/wallet", h.GetWallet)
	app.Get("/wallet/transactions", h.GetTransactions)
	app.Get("/wallet/locks", h.GetLockedCredits)
	return app
}

type walletEnvelope struct {
	Success bool          `json:"success"`
	Data    models.Wallet `json:"data"`
}

func TestGetWalletCreatesWithStartingGrant(t *testing.T) {
	db := openTestDB(t)
	userID := uuid.New()
	app := newWalletApp(t, db, userID)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/wallet", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body walletEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, userID, body.Data.UserID)
	assert.EqualValues(t, 100, body.Data.AvailableCredits)
}

func TestGetTransactionsFiltersByType(t *testing.T) {
	db := openTestDB(t)
	userID := uuid.New()
	app := newWalletApp(t, db, userID)

	svc := wallet.NewService(db)
	_, err := svc.GetOrCreate(db, userID, 100)
	require.NoError(t, err)
	_, err = svc.Adjust(db, userID, 10, "adjust one")
	require.NoError(t, err)
	_, err = svc.AddCredits(db, userID, 20, "purchase", nil)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/wallet/transactions?type=CREDIT_PURCHASE", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                 `json:"success"`
		Data    []models.Transaction `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, models.TrxCreditPurchase, body.Data[0].Type)
}

func TestGetLockedCreditsListsActiveLocks(t *testing.T) {
	db := openTestDB(t)
	userID := uuid.New()
	app := newWalletApp(t, db, userID)

	svc := wallet.NewService(db)
	_, err := svc.GetOrCreate(db, userID, 100)
	require.NoError(t, err)
	_, err = svc.LockCredits(db, userID, 30, uuid.New(), "session booking")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/wallet/locks", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                `json:"success"`
		Data    []models.CreditLock `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.EqualValues(t, 30, body.Data[0].Amount)
}

func TestLedgerNotVisibleToOtherUsers(t *testing.T) {
	db := openTestDB(t)
	owner := uuid.New()
	stranger := uuid.New()

	svc := wallet.NewService(db)
	_, err := svc.GetOrCreate(db, owner, 100)
	require.NoError(t, err)
	_, err = svc.Adjust(db, owner, 10, "owner entry")
	require.NoError(t, err)
	_, err = svc.GetOrCreate(db, stranger, 100)
	require.NoError(t, err)

	app := newWalletApp(t, db, stranger)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/wallet/transactions", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Success bool                 `json:"success"`
		Data    []models.Transaction `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Data)
}
