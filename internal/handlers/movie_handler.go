package handlers

import (
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type MovieHandler struct {
	movieService  *services.MovieService
	ratingService *services.RatingService
}

func NewMovieHandler(movieService *services.MovieService, ratingService *services.RatingService) *MovieHandler {
	return &MovieHandler{movieService: movieService, ratingService: ratingService}
}

func (h *MovieHandler) List(c *fiber.Ctx) error {
	page, limit := services.NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", services.DefaultPageLimit))
	movies, total, err := h.movieService.List(c.UserContext(), page, limit, c.Query("genre"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.PageResponse{Data: movies, Total: total, Page: page, Limit: limit})
}

func (h *MovieHandler) Get(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid movie id")
	}
	movie, err := h.movieService.Get(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(movie)
}

func (h *MovieHandler) Create(c *fiber.Ctx) error {
	var req dto.MovieRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	movie, err := h.movieService.Create(c.UserContext(), &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(movie)
}

func (h *MovieHandler) Update(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid movie id")
	}
	var req dto.MovieRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	movie, err := h.movieService.Update(c.UserContext(), id, &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(movie)
}

func (h *MovieHandler) Delete(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid movie id")
	}
	if err := h.movieService.Deactivate(c.UserContext(), id); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MovieHandler) ListRatings(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid movie id")
	}
	page, limit := services.NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", services.DefaultPageLimit))
	ratings, total, err := h.ratingService.ListForMovie(c.UserContext(), id, page, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.PageResponse{Data: ratings, Total: total, Page: page, Limit: limit})
}

// Rate creates or replaces the caller's rating.
func (h *MovieHandler) Rate(c *fiber.Ctx) error {
	caller, err := identity.Get(c)
	if err != nil {
		return middleware.Unauthorized(c)
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid movie id")
	}
	var req dto.RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	rating, err := h.ratingService.Upsert(c.UserContext(), caller.UserID, id, &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(rating)
}

func (h *MovieHandler) Unrate(c *fiber.Ctx) error {
	caller, err := identity.Get(c)
	if err != nil {
		return middleware.Unauthorized(c)
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid movie id")
	}
	if err := h.ratingService.Delete(c.UserContext(), caller.UserID, id); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
