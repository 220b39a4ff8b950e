package middleware

import (
	"strings"

	"marketplace/internal/logging"
	"marketplace/internal/services"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
				"error":   "missing token",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
				"error":   "malformed authorization header",
			})
		}

		principal, err := authService.ValidateToken(parts[1])
		if err != nil {
			logging.FromContext(c.UserContext()).Info("JWT validation failed", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(principalKey, *principal)
		c.Locals("user_id", principal.UserID)
		c.Locals("role", principal.Role)
		return c.Next()
	}
}

// SellerOnly rejects callers whose role is not seller. It must run after
// AuthRequired.
func SellerOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok || !principal.IsSeller() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Only sellers are allowed to perform this action",
				"error":   "forbidden",
			})
		}
		return c.Next()
	}
}

// PrincipalFrom returns the caller stored by AuthRequired.
func PrincipalFrom(c *fiber.Ctx) (services.Principal, bool) {
	p, ok := c.Locals(principalKey).(services.Principal)
	return p, ok
}
