package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeskills/tradeskills-backend/internal/utils"
)

const testSecret = "test-secret"

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", JWTFromCookie(testSecret), AttachJWTLocals(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("userId"),
			"role":    c.Locals("role"),
		})
	})
	app.Get("/admin", JWTFromCookie(testSecret), RequireRoles("admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestCookieAuthSetsLocals(t *testing.T) {
	app := newAuthApp()
	uid := uuid.New().String()

	token, err := utils.SignJWT(testSecret, uid, "user", 15)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", "ts_token="+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMissingCookieRejected(t *testing.T) {
	app := newAuthApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMalformedTokenRejected(t *testing.T) {
	app := newAuthApp()

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", "ts_token=not-a-jwt")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestExpiredTokenRejected(t *testing.T) {
	app := newAuthApp()

	token, err := utils.SignJWT(testSecret, uuid.New().String(), "user", -5)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", "ts_token="+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRolesGatesByClaim(t *testing.T) {
	app := newAuthApp()

	userToken, err := utils.SignJWT(testSecret, uuid.New().String(), "user", 15)
	require.NoError(t, err)
	adminToken, err := utils.SignJWT(testSecret, uuid.New().String(), "admin", 15)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Cookie", "ts_token="+userToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Cookie", "ts_token="+adminToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := utils.SignJWT("other-secret", uuid.New().String(), "user", 15)
	require.NoError(t, err)

	_, err = utils.ParseJWT(testSecret, token)
	assert.Error(t, err)
}

func TestParseReturnsSubjectAndRole(t *testing.T) {
	uid := uuid.New().String()

	token, err := utils.SignJWT(testSecret, uid, "admin", 15)
	require.NoError(t, err)

	claims, err := utils.ParseJWT(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uid, claims.UserID)
	assert.Equal(t, uid, claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}
