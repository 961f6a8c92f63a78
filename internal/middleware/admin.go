package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminRequired must run after Authenticate. It checks:
// 1. Config-based admin emails/IDs
// 2. DB-based user Role field
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)
	adminUserIDs := parseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		id, err := identity.Get(c)
		if err != nil {
			return Unauthorized(c)
		}

		if contains(adminEmails, strings.ToLower(id.Email)) || contains(adminUserIDs, id.UserID.String()) {
			return c.Next()
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).Select("role").First(&user, "id = ?", id.UserID).Error; err == nil {
			if user.Role == models.RoleAdmin {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.NewErrorResponse(
			fiber.StatusForbidden, dto.CodeForbidden, "Admin access required", c.Path(),
		))
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(p))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
