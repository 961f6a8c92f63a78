package handlers

import (
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/tokens"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
}

func NewAuthHandler(authService *services.AuthService, userService *services.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.userService.Register(c.UserContext(), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewUserResponse(user))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(resp)
}

// Refresh issues a new access token. The refresh token is returned unchanged.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.RefreshAccess(c.UserContext(), req.RefreshToken)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(resp)
}

// Rotate trades a refresh token for a new pair and revokes the old one.
func (h *AuthHandler) Rotate(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.Rotate(c.UserContext(), req.RefreshToken)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if token, ok := middleware.BearerToken(c); ok {
		h.authService.Logout(c.UserContext(), token)
	}
	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) Sessions(c *fiber.Ctx) error {
	id, err := identity.Get(c)
	if err != nil {
		return middleware.Unauthorized(c)
	}
	purpose, ok := purposeQuery(c)
	if !ok {
		return badRequest(c, "type must be access or refresh")
	}

	resp, err := h.authService.Sessions(c.UserContext(), id.UserID, purpose)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) RevokeSessions(c *fiber.Ctx) error {
	id, err := identity.Get(c)
	if err != nil {
		return middleware.Unauthorized(c)
	}
	purpose, ok := purposeQuery(c)
	if !ok {
		return badRequest(c, "type must be access or refresh")
	}

	n, err := h.authService.RevokeSessions(c.UserContext(), id.UserID, purpose)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"revoked": n})
}

// purposeQuery reads the optional ?type= filter. A nil purpose means all.
func purposeQuery(c *fiber.Ctx) (*tokens.Purpose, bool) {
	raw := c.Query("type")
	if raw == "" {
		return nil, true
	}
	p, ok := tokens.ParsePurpose(raw)
	if !ok {
		return nil, false
	}
	return &p, true
}
