// Package identity carries the authenticated caller through request contexts.
package identity

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var ErrNoIdentity = errors.New("no authenticated identity in context")

// Identity is the caller established by the authentication gate.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Email    string
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Attach stores id on the request's user context.
func Attach(c *fiber.Ctx, id Identity) {
	c.SetUserContext(WithIdentity(c.UserContext(), id))
}

// Get returns the caller of an authenticated request.
func Get(c *fiber.Ctx) (Identity, error) {
	id, ok := FromContext(c.UserContext())
	if !ok || id.UserID == uuid.Nil {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}
