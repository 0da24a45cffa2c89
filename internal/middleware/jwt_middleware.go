package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"souq/internal/services"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token. It
// stores the caller's identity (user_id, username, role) in the request
// context; the core trusts this identity without re-verifying credentials.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims["user_id"])
		c.Locals("username", claims["username"])
		c.Locals("role", claims["role"])

		return c.Next()
	}
}

// RequireRole guards a route group for a single role. Must run after
// AuthRequired.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("role") != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "You do not have permission to access this resource",
			})
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's id from the request context.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// Role returns the authenticated user's role from the request context.
func Role(c *fiber.Ctx) string {
	role, _ := c.Locals("role").(string)
	return role
}
