// Package store persists issued tokens so they can be looked up and revoked.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/google/uuid"
)

// ErrStorage wraps every failure coming from the underlying database.
var ErrStorage = errors.New("token storage error")

// TokenStore is the persistence contract for issued tokens.
type TokenStore interface {
	// Save inserts or updates a record and returns it with defaults filled in.
	Save(ctx context.Context, rec *models.TokenRecord) (*models.TokenRecord, error)

	// FindByTokenHash returns nil, nil when no row matches.
	FindByTokenHash(ctx context.Context, hash string) (*models.TokenRecord, error)

	FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.TokenRecord, error)
	FindActiveByUserAndType(ctx context.Context, userID uuid.UUID, tokenType models.TokenType) ([]models.TokenRecord, error)

	RevokeByHash(ctx context.Context, hash, reason string) (int64, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) (int64, error)
	RevokeAllForUserAndType(ctx context.Context, userID uuid.UUID, tokenType models.TokenType, reason string) (int64, error)

	// IsRevoked is true only when a matching row exists and is revoked.
	// A missing row reports false; it does not mean the token is valid.
	IsRevoked(ctx context.Context, hash string) (bool, error)

	// DeleteExpiredBefore hard-deletes rows with expires_at < cutoff.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	CountActiveForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
