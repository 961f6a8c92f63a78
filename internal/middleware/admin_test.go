package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAdminDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func adminApp(db *gorm.DB, cfg *config.Config, id *identity.Identity) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if id != nil {
			identity.Attach(c, *id)
		}
		return c.Next()
	})
	app.Use(AdminRequired(db, cfg))
	app.Get("/admin", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	return app
}

func TestAdminRequired(t *testing.T) {
	db := newAdminDBForTest(t)
	admin := models.User{Username: "root", Email: "root@example.com", Password: "x", Role: models.RoleAdmin, IsActive: true}
	plain := models.User{Username: "joe", Email: "joe@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&plain).Error)

	configured := uuid.New()
	cfg := &config.Config{AdminEmails: "Boss@Example.com, ", AdminUserIDs: configured.String()}

	tests := []struct {
		name string
		id   *identity.Identity
		want int
	}{
		{"no identity", nil, fiber.StatusUnauthorized},
		{"db role admin", &identity.Identity{UserID: admin.ID, Email: admin.Email}, fiber.StatusNoContent},
		{"plain user", &identity.Identity{UserID: plain.ID, Email: plain.Email}, fiber.StatusForbidden},
		{"configured email", &identity.Identity{UserID: uuid.New(), Email: "boss@example.com"}, fiber.StatusNoContent},
		{"configured id", &identity.Identity{UserID: configured}, fiber.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := adminApp(db, cfg, tt.id).Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
