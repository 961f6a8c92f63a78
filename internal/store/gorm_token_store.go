package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTokenStore implements TokenStore on the auth_tokens table.
type GormTokenStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormTokenStore(db *gorm.DB) *GormTokenStore {
	return &GormTokenStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *GormTokenStore) Save(ctx context.Context, rec *models.TokenRecord) (*models.TokenRecord, error) {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(rec).Error; err != nil {
		return nil, storageErr("save token", err)
	}
	return rec, nil
}

func (s *GormTokenStore) FindByTokenHash(ctx context.Context, hash string) (*models.TokenRecord, error) {
	var rec models.TokenRecord
	err := s.db.WithContext(ctx).Where("token_hash = ?", hash).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find token by hash", err)
	}
	return &rec, nil
}

func (s *GormTokenStore) FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.TokenRecord, error) {
	var recs []models.TokenRecord
	err := s.active(ctx, userID).Order("issued_at DESC").Find(&recs).Error
	if err != nil {
		return nil, storageErr("find active tokens", err)
	}
	return recs, nil
}

func (s *GormTokenStore) FindActiveByUserAndType(ctx context.Context, userID uuid.UUID, tokenType models.TokenType) ([]models.TokenRecord, error) {
	var recs []models.TokenRecord
	err := s.active(ctx, userID).
		Where("token_type = ?", tokenType).
		Order("issued_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, storageErr("find active tokens by type", err)
	}
	return recs, nil
}

func (s *GormTokenStore) RevokeByHash(ctx context.Context, hash, reason string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.TokenRecord{}).
		Where("token_hash = ?", hash).
		Updates(s.revocation(reason))
	if result.Error != nil {
		return 0, storageErr("revoke token", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormTokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.TokenRecord{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Updates(s.revocation(reason))
	if result.Error != nil {
		return 0, storageErr("revoke user tokens", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormTokenStore) RevokeAllForUserAndType(ctx context.Context, userID uuid.UUID, tokenType models.TokenType, reason string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.TokenRecord{}).
		Where("user_id = ? AND token_type = ? AND is_revoked = ?", userID, tokenType, false).
		Updates(s.revocation(reason))
	if result.Error != nil {
		return 0, storageErr("revoke user tokens by type", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormTokenStore) IsRevoked(ctx context.Context, hash string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.TokenRecord{}).
		Where("token_hash = ? AND is_revoked = ?", hash, true).
		Count(&count).Error
	if err != nil {
		return false, storageErr("check revocation", err)
	}
	return count > 0, nil
}

func (s *GormTokenStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.TokenRecord{})
	if result.Error != nil {
		return 0, storageErr("delete expired tokens", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormTokenStore) CountActiveForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := s.active(ctx, userID).Model(&models.TokenRecord{}).Count(&count).Error; err != nil {
		return 0, storageErr("count active tokens", err)
	}
	return count, nil
}

func (s *GormTokenStore) active(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND is_revoked = ? AND expires_at > ?", userID, false, s.now())
}

func (s *GormTokenStore) revocation(reason string) map[string]interface{} {
	now := s.now()
	return map[string]interface{}{
		"is_revoked":     true,
		"revoked_at":     now,
		"revoked_reason": reason,
		"updated_at":     now,
	}
}
