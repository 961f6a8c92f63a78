package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/tokens"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(dto.NewErrorResponse(status, code, message, c.Path()))
}

func badRequest(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusBadRequest, dto.CodeValidationFailed, message)
}

// serviceError maps a service failure onto the error envelope. Unknown
// errors are logged and reported as 500 without detail.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidationFailed):
		return badRequest(c, err.Error())
	case errors.Is(err, services.ErrAuthenticationFailed):
		return errorJSON(c, fiber.StatusUnauthorized, dto.CodeAuthenticationFailed, err.Error())
	case errors.Is(err, services.ErrAccountInactive):
		return errorJSON(c, fiber.StatusForbidden, dto.CodeAccountInactive, "Account is inactive")
	case errors.Is(err, tokens.ErrInvalidToken),
		errors.Is(err, tokens.ErrTokenExpired),
		errors.Is(err, tokens.ErrTokenRevoked):
		return errorJSON(c, fiber.StatusUnauthorized, dto.CodeInvalidToken, "Invalid or expired token")
	case errors.Is(err, services.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, dto.CodeNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		return errorJSON(c, fiber.StatusConflict, dto.CodeConflict, err.Error())
	}

	slog.Error("request failed", "path", c.Path(), "error", err)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}
	return errorJSON(c, fiber.StatusInternalServerError, dto.CodeInternal, "Internal server error")
}

func pathUUID(c *fiber.Ctx, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
