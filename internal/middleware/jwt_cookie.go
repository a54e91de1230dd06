package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tradeskills/tradeskills-backend/internal/utils"
)

// JWTFromCookie authenticates the request from the ts_token session cookie
// and stores the parsed claims in Locals("user") for downstream middleware.
func JWTFromCookie(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies("ts_token")
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals("user", claims)
		return c.Next()
	}
}
