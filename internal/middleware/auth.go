package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/tokens"
	"github.com/gofiber/fiber/v2"
)

const bearerPrefix = "Bearer "

// TokenValidator is satisfied by *tokens.Issuer.
type TokenValidator interface {
	ValidateWithBlacklist(ctx context.Context, token string) (*tokens.Claims, error)
}

// PublicPaths is the set of routes the gate lets through unauthenticated.
// An entry ending in "/*" matches every path below it.
type PublicPaths struct {
	exact    map[string]struct{}
	prefixes []string
}

func NewPublicPaths(paths ...string) *PublicPaths {
	p := &PublicPaths{exact: make(map[string]struct{}, len(paths))}
	for _, path := range paths {
		if prefix, ok := strings.CutSuffix(path, "/*"); ok {
			p.prefixes = append(p.prefixes, prefix+"/")
			p.exact[prefix] = struct{}{}
			continue
		}
		p.exact[path] = struct{}{}
	}
	return p
}

func (p *PublicPaths) Match(path string) bool {
	if p == nil {
		return false
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if _, ok := p.exact[path]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

// Authenticate rejects any non-public request without a valid, unrevoked
// bearer token and attaches the caller's identity otherwise. Every failure
// gets the same 401 body.
func Authenticate(validator TokenValidator, public *PublicPaths) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions || public.Match(c.Path()) {
			return c.Next()
		}

		token, ok := BearerToken(c)
		if !ok {
			return Unauthorized(c)
		}

		claims, err := validator.ValidateWithBlacklist(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, store.ErrStorage) {
				slog.Error("token validation unavailable", "path", c.Path(), "error", err)
			} else {
				slog.Debug("token rejected", "path", c.Path(), "error", err)
			}
			return Unauthorized(c)
		}

		// Refresh tokens only buy new access tokens at the auth endpoints.
		if claims.Purpose() != tokens.PurposeAccess {
			return Unauthorized(c)
		}

		sub, err := claims.Identity()
		if err != nil {
			return Unauthorized(c)
		}

		identity.Attach(c, identity.Identity{
			UserID:   sub.UserID,
			Username: sub.Username,
			Email:    sub.Email,
		})
		c.Locals("user_id", sub.UserID.String())
		return c.Next()
	}
}

func Unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.NewErrorResponse(
		fiber.StatusUnauthorized, dto.CodeUnauthorized, "Unauthorized: invalid or expired token", c.Path(),
	))
}
