package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/tokens"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-with-enough-entropy-1234567890"

func newServiceDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.TokenRecord{}, &models.Movie{}, &models.Rating{}))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        testSecret,
		JWTIssuer:        "movie-backend-test",
		JWTAccessExpiry:  time.Hour,
		JWTRefreshExpiry: 7 * 24 * time.Hour,
	}
}

func testPasswords() *BcryptVerifier {
	return &BcryptVerifier{Cost: bcrypt.MinCost}
}

type authFixture struct {
	db     *gorm.DB
	cfg    *config.Config
	store  *store.GormTokenStore
	issuer *tokens.Issuer
	auth   *AuthService
	users  *UserService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := newServiceDBForTest(t)
	cfg := testConfig()
	tokenStore := store.NewGormTokenStore(db)
	issuer := tokens.NewIssuer(tokenStore, cfg.JWTSecret, cfg.JWTIssuer)
	passwords := testPasswords()
	return &authFixture{
		db:     db,
		cfg:    cfg,
		store:  tokenStore,
		issuer: issuer,
		auth:   NewAuthService(db, cfg, issuer, tokenStore, passwords),
		users:  NewUserService(db, passwords),
	}
}

func (f *authFixture) createUser(t *testing.T, username, email, password string, active bool) *models.User {
	t.Helper()
	hash, err := testPasswords().Hash(password)
	require.NoError(t, err)
	u := &models.User{
		Username: username,
		Email:    email,
		Password: hash,
		IsActive: active,
	}
	require.NoError(t, f.db.WithContext(context.Background()).Create(u).Error)
	return u
}
