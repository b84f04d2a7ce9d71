package middleware

import (
	"github.com/englishmaster/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// RequireAdmin ensures the authenticated identity has the admin role.
// Must run after AuthMiddleware.Required.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := GetIdentity(c)
		if !ok {
			return response.Unauthorized(c, "Authentication required")
		}

		if !ident.IsAdmin() {
			return response.Forbidden(c, "Admin access required")
		}

		return c.Next()
	}
}
