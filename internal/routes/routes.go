package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

// PublicPaths are reachable without a bearer token. Logout reads its own
// bearer token and answers 200 even for a revoked or expired one.
var PublicPaths = []string{
	"/api/health",
	"/api/docs",
	"/api/auth/register",
	"/api/auth/login",
	"/api/auth/refresh",
	"/api/auth/rotate",
	"/api/auth/logout",
	"/api/users/check-username",
	"/api/users/check-email",
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	validator middleware.TokenValidator,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	movieHandler *handlers.MovieHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter, per IP
	if cfg.RateLimit > 0 {
		api.Use(rateLimiter(cfg.RateLimit))
	}

	// Every /api route below requires a bearer token unless listed in PublicPaths
	api.Use(middleware.Authenticate(validator, middleware.NewPublicPaths(PublicPaths...)))

	api.Get("/health", healthHandler.Check)
	api.Get("/docs", handlers.Docs)

	// Auth-specific rate limit (stricter)
	auth := api.Group("/auth")
	if cfg.AuthRateLimit > 0 {
		auth.Use(rateLimiter(cfg.AuthRateLimit))
	}
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/rotate", authHandler.Rotate)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/sessions", authHandler.Sessions)
	auth.Delete("/sessions", authHandler.RevokeSessions)

	users := api.Group("/users")
	users.Get("/check-username", userHandler.CheckUsername)
	users.Get("/check-email", userHandler.CheckEmail)
	users.Get("/me", userHandler.Me)

	movies := api.Group("/movies")
	movies.Get("/", movieHandler.List)
	movies.Get("/:id", movieHandler.Get)
	movies.Get("/:id/ratings", movieHandler.ListRatings)
	movies.Put("/:id/ratings", movieHandler.Rate)
	movies.Delete("/:id/ratings", movieHandler.Unrate)

	// Catalogue management (admin required)
	adminOnly := middleware.AdminRequired(db, cfg)
	movies.Post("/", adminOnly, movieHandler.Create)
	movies.Put("/:id", adminOnly, movieHandler.Update)
	movies.Delete("/:id", adminOnly, movieHandler.Delete)
}

func rateLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.NewErrorResponse(
				fiber.StatusTooManyRequests, dto.CodeTooManyRequests, "Too many requests", c.Path(),
			))
		},
	})
}
