package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tradeskills/tradeskills-backend/internal/utils"
)

// sessionClaims pulls the claims JWTFromCookie stashed on the request.
func sessionClaims(c *fiber.Ctx) (*utils.Claims, bool) {
	claims, ok := c.Locals("user").(*utils.Claims)
	if !ok || claims == nil || strings.TrimSpace(claims.UserID) == "" {
		return nil, false
	}
	return claims, true
}
