package identity

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	id := Identity{UserID: uuid.New(), Username: "bob", Email: "bob@example.com"}
	got, ok := FromContext(WithIdentity(context.Background(), id))
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestAttachAndGet(t *testing.T) {
	want := Identity{UserID: uuid.New(), Username: "bob"}
	app := fiber.New()
	app.Get("/anon", func(c *fiber.Ctx) error {
		_, err := Get(c)
		assert.ErrorIs(t, err, ErrNoIdentity)
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/me", func(c *fiber.Ctx) error {
		Attach(c, want)
		return c.Next()
	}, func(c *fiber.Ctx) error {
		got, err := Get(c)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/anon", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
