package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newStoreDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.TokenRecord{}))
	return db
}

func seedToken(t *testing.T, s *GormTokenStore, userID uuid.UUID, hash string, typ models.TokenType, issued, expires time.Time) *models.TokenRecord {
	t.Helper()
	rec, err := models.NewTokenRecord(userID, hash, typ, issued, expires)
	require.NoError(t, err)
	saved, err := s.Save(context.Background(), rec)
	require.NoError(t, err)
	return saved
}

func TestGormTokenStoreSaveAndFind(t *testing.T) {
	s := NewGormTokenStore(newStoreDBForTest(t))
	ctx := context.Background()
	now := time.Now().UTC()
	userID := uuid.New()

	saved := seedToken(t, s, userID, "hash-1", models.TokenTypeAccess, now, now.Add(time.Hour))
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := s.FindByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, models.TokenTypeAccess, got.TokenType)
	assert.False(t, got.IsRevoked)
	assert.Nil(t, got.RevokedAt)
	assert.Nil(t, got.RevokedReason)

	missing, err := s.FindByTokenHash(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormTokenStoreActiveQueries(t *testing.T) {
	s := NewGormTokenStore(newStoreDBForTest(t))
	ctx := context.Background()
	now := time.Now().UTC()
	userID := uuid.New()
	other := uuid.New()

	seedToken(t, s, userID, "access-live", models.TokenTypeAccess, now, now.Add(time.Hour))
	seedToken(t, s, userID, "refresh-live", models.TokenTypeRefresh, now, now.Add(24*time.Hour))
	seedToken(t, s, userID, "access-expired", models.TokenTypeAccess, now.Add(-2*time.Hour), now.Add(-time.Hour))
	seedToken(t, s, userID, "access-revoked", models.TokenTypeAccess, now, now.Add(time.Hour))
	seedToken(t, s, other, "other-live", models.TokenTypeAccess, now, now.Add(time.Hour))

	_, err := s.RevokeByHash(ctx, "access-revoked", "test")
	require.NoError(t, err)

	all, err := s.FindActiveByUser(ctx, userID)
	require.NoError(t, err)
	hashes := make([]string, 0, len(all))
	for _, r := range all {
		hashes = append(hashes, r.TokenHash)
	}
	assert.ElementsMatch(t, []string{"access-live", "refresh-live"}, hashes)

	refresh, err := s.FindActiveByUserAndType(ctx, userID, models.TokenTypeRefresh)
	require.NoError(t, err)
	require.Len(t, refresh, 1)
	assert.Equal(t, "refresh-live", refresh[0].TokenHash)

	count, err := s.CountActiveForUser(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestGormTokenStoreRevokeByHashIsMonotonic(t *testing.T) {
	s := NewGormTokenStore(newStoreDBForTest(t))
	ctx := context.Background()
	now := time.Now().UTC()
	seedToken(t, s, uuid.New(), "h", models.TokenTypeAccess, now, now.Add(time.Hour))

	revoked, err := s.IsRevoked(ctx, "h")
	require.NoError(t, err)
	assert.False(t, revoked)

	n, err := s.RevokeByHash(ctx, "h", "first")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.RevokeByHash(ctx, "h", "second")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	revoked, err = s.IsRevoked(ctx, "h")
	require.NoError(t, err)
	assert.True(t, revoked)

	rec, err := s.FindByTokenHash(ctx, "h")
	require.NoError(t, err)
	require.NotNil(t, rec.RevokedAt)
	require.NotNil(t, rec.RevokedReason)
	assert.Equal(t, "second", *rec.RevokedReason)

	n, err = s.RevokeByHash(ctx, "unknown", "x")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestGormTokenStoreIsRevokedMissingRow(t *testing.T) {
	s := NewGormTokenStore(newStoreDBForTest(t))

	revoked, err := s.IsRevoked(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestGormTokenStoreRevokeAllForUser(t *testing.T) {
	s := NewGormTokenStore(newStoreDBForTest(t))
	ctx := context.Background()
	now := time.Now().UTC()
	userID := uuid.New()
	other := uuid.New()

	seedToken(t, s, userID, "a1", models.TokenTypeAccess, now, now.Add(time.Hour))
	seedToken(t, s, userID, "r1", models.TokenTypeRefresh, now, now.Add(time.Hour))
	seedToken(t, s, userID, "r2", models.TokenTypeRefresh, now, now.Add(time.Hour))
	seedToken(t, s, other, "o1", models.TokenTypeRefresh, now, now.Add(time.Hour))

	n, err := s.RevokeAllForUserAndType(ctx, userID, models.TokenTypeRefresh, "password change")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	stillActive, err := s.FindActiveByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, stillActive, 1)
	assert.Equal(t, "a1", stillActive[0].TokenHash)

	n, err = s.RevokeAllForUser(ctx, userID, "compromised")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "already revoked rows are not touched again")

	count, err := s.CountActiveForUser(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)

	otherRevoked, err := s.IsRevoked(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, otherRevoked)
}

func TestGormTokenStoreDeleteExpiredBefore(t *testing.T) {
	s := NewGormTokenStore(newStoreDBForTest(t))
	ctx := context.Background()
	now := time.Now().UTC()
	cutoff := now.Add(-24 * time.Hour)
	userID := uuid.New()

	seedToken(t, s, userID, "old", models.TokenTypeAccess, now.Add(-72*time.Hour), now.Add(-48*time.Hour))
	seedToken(t, s, userID, "recent", models.TokenTypeAccess, now.Add(-2*time.Hour), now.Add(-time.Hour))
	seedToken(t, s, userID, "live", models.TokenTypeRefresh, now, now.Add(time.Hour))
	seedToken(t, s, userID, "boundary", models.TokenTypeAccess, cutoff.Add(-time.Hour), cutoff)

	n, err := s.DeleteExpiredBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.DeleteExpiredBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, h := range []string{"recent", "live", "boundary"} {
		rec, err := s.FindByTokenHash(ctx, h)
		require.NoError(t, err)
		assert.NotNil(t, rec, h)
	}
	gone, err := s.FindByTokenHash(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestGormTokenStoreUniqueHash(t *testing.T) {
	s := NewGormTokenStore(newStoreDBForTest(t))
	now := time.Now().UTC()
	seedToken(t, s, uuid.New(), "dup", models.TokenTypeAccess, now, now.Add(time.Hour))

	rec, err := models.NewTokenRecord(uuid.New(), "dup", models.TokenTypeAccess, now, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = s.Save(context.Background(), rec)
	require.ErrorIs(t, err, ErrStorage)
}
