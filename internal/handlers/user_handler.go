package handlers

import (
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	id, err := identity.Get(c)
	if err != nil {
		return middleware.Unauthorized(c)
	}

	user, err := h.userService.GetByID(c.UserContext(), id.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *UserHandler) CheckUsername(c *fiber.Ctx) error {
	ok, err := h.userService.UsernameAvailable(c.UserContext(), c.Query("username"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{Available: ok})
}

func (h *UserHandler) CheckEmail(c *fiber.Ctx) error {
	ok, err := h.userService.EmailAvailable(c.UserContext(), c.Query("email"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{Available: ok})
}
