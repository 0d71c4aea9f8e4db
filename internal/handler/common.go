package handler

import (
	"go-pos-kasir/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Helpers to pull user info from the JWT context (set by auth middleware)
func getUserID(c *fiber.Ctx) string {
	userID := c.Locals("user_id")
	if userID == nil {
		return "system" // shouldn't happen in protected routes
	}
	return userID.(string)
}

func getUserUUID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(getUserID(c))
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// respondError maps a classified service error to its HTTP status.
func respondError(c *fiber.Ctx, err error) error {
	return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
}
