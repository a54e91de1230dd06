package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AttachJWTLocals copies the user id and role out of the session claims
// into request locals, which is all most handlers need.
func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := sessionClaims(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		c.Locals("userId", strings.TrimSpace(claims.UserID))
		c.Locals("role", strings.ToLower(strings.TrimSpace(claims.Role)))

		return c.Next()
	}
}
