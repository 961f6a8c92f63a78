package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/scheduler"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/tokens"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	level := logging.ParseLevel(os.Getenv("LOG_LEVEL"))
	logging.Setup(level)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 2*time.Minute)
	err := database.Migrate(migrateCtx)
	cancelMigrate()
	if err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout, level),
		pgLogHandler,
	)))

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Tokens
	tokenStore := store.NewGormTokenStore(database.DB)
	issuer := tokens.NewIssuer(tokenStore, cfg.JWTSecret, cfg.JWTIssuer)

	// Services
	passwords := services.NewBcryptVerifier()
	userService := services.NewUserService(database.DB, passwords)
	authService := services.NewAuthService(database.DB, cfg, issuer, tokenStore, passwords)
	movieService := services.NewMovieService(database.DB)
	ratingService := services.NewRatingService(database.DB, movieService)

	// Token and log retention sweeps
	cleanup := scheduler.New(tokenStore, database.DB, scheduler.Config{
		TokenInterval:  config.TokenCleanupInterval,
		TokenRetention: cfg.TokenRetention,
		LogRetention:   cfg.LogRetention,
	})
	if err := cleanup.Start(); err != nil {
		slog.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	movieHandler := handlers.NewMovieHandler(movieService, ratingService)
	healthHandler := handlers.NewHealthHandler(database.Ping)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB, issuer, authHandler, userHandler, movieHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	cleanup.Stop()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		attrs := []any{
			"request_id", c.Locals("requestid"),
			"path", c.Path(),
			"action", c.Method(),
			"error", err.Error(),
		}
		if userID, ok := c.Locals("user_id").(string); ok {
			attrs = append(attrs, "user_id", userID)
		}
		slog.Error("unhandled server error", attrs...)
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.NewErrorResponse(code, errorCode(code), message, c.Path()))
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return dto.CodeValidationFailed
	case fiber.StatusUnauthorized:
		return dto.CodeUnauthorized
	case fiber.StatusForbidden:
		return dto.CodeForbidden
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return dto.CodeNotFound
	case fiber.StatusTooManyRequests:
		return dto.CodeTooManyRequests
	default:
		return dto.CodeInternal
	}
}
