package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kvishal2109/magicofresinn/internal/utils"
)

const adminContextKey = "currentAdmin"

// AdminOnly rejects requests without a valid admin bearer token.
func AdminOnly(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		subject, err := utils.ParseToken(secret, strings.TrimSpace(parts[1]), utils.RoleAdmin)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(adminContextKey, subject)
		return c.Next()
	}
}

// CurrentAdmin returns the subject of the admin token, if any.
func CurrentAdmin(c *fiber.Ctx) (string, bool) {
	subject, ok := c.Locals(adminContextKey).(string)
	return subject, ok && subject != ""
}
