package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/tokens"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	bearerTokenType      = "Bearer"
	reasonSessionsRevoke = "User revoked sessions"
)

// TokenIssuer is the subset of *tokens.Issuer the auth flow depends on.
type TokenIssuer interface {
	Generate(ctx context.Context, sub tokens.Subject, duration time.Duration, purpose tokens.Purpose) (string, error)
	ValidateWithBlacklist(ctx context.Context, token string) (*tokens.Claims, error)
	Revoke(ctx context.Context, token, reason string) error
	Refresh(ctx context.Context, oldToken string, duration time.Duration) (string, error)
}

type AuthService struct {
	db        *gorm.DB
	cfg       *config.Config
	issuer    TokenIssuer
	store     store.TokenStore
	passwords PasswordVerifier
}

func NewAuthService(db *gorm.DB, cfg *config.Config, issuer TokenIssuer, tokenStore store.TokenStore, passwords PasswordVerifier) *AuthService {
	return &AuthService{
		db:        db,
		cfg:       cfg,
		issuer:    issuer,
		store:     tokenStore,
		passwords: passwords,
	}
}

// Login checks credentials and issues an access/refresh pair. Unknown users
// and wrong passwords both yield ErrAuthenticationFailed.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	login := strings.TrimSpace(req.UsernameOrEmail)
	if login == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: usernameOrEmail and password are required", ErrValidationFailed)
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuthenticationFailed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.passwords.Compare(user.Password, req.Password); err != nil {
		return nil, ErrAuthenticationFailed
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	sub := subjectOf(&user)
	var accessToken, refreshToken string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accessToken, err = s.issuer.Generate(gctx, sub, s.cfg.JWTAccessExpiry, tokens.PurposeAccess)
		return err
	})
	g.Go(func() error {
		var err error
		refreshToken, err = s.issuer.Generate(gctx, sub, s.cfg.JWTRefreshExpiry, tokens.PurposeRefresh)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		slog.Warn("failed to record last login", "user_id", user.ID.String(), "error", err)
	} else {
		user.LastLoginAt = &now
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    bearerTokenType,
		ExpiresIn:    int64(s.cfg.JWTAccessExpiry.Seconds()),
		User:         dto.NewUserResponse(&user),
	}, nil
}

// RefreshAccess issues a new access token for a valid refresh token. The
// refresh token itself stays alive.
func (s *AuthService) RefreshAccess(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	user, err := s.refreshOwner(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.issuer.Generate(ctx, subjectOf(user), s.cfg.JWTAccessExpiry, tokens.PurposeAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    bearerTokenType,
		ExpiresIn:    int64(s.cfg.JWTAccessExpiry.Seconds()),
	}, nil
}

// Rotate exchanges a refresh token for a new refresh token and a new access
// token. The presented refresh token is revoked.
func (s *AuthService) Rotate(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	user, err := s.refreshOwner(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	// Refresh decodes the token again on its own; the blacklist and purpose
	// checks above are what this endpoint adds.
	rotated, err := s.issuer.Refresh(ctx, refreshToken, s.cfg.JWTRefreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	accessToken, err := s.issuer.Generate(ctx, subjectOf(user), s.cfg.JWTAccessExpiry, tokens.PurposeAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: rotated,
		TokenType:    bearerTokenType,
		ExpiresIn:    int64(s.cfg.JWTAccessExpiry.Seconds()),
	}, nil
}

// Logout blacklists token on a best-effort basis. A failed revocation is
// reported to logs and Sentry, never to the caller.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if err := s.issuer.Revoke(ctx, token, tokens.ReasonLogout); err != nil {
		slog.Warn("logout revocation failed", "action", "logout", "error", err)
		sentry.CaptureException(err)
	}
}

// Sessions lists the caller's active tokens, optionally narrowed to one purpose.
func (s *AuthService) Sessions(ctx context.Context, userID uuid.UUID, purpose *tokens.Purpose) (*dto.SessionsResponse, error) {
	var (
		recs []models.TokenRecord
		err  error
	)
	if purpose != nil {
		recs, err = s.store.FindActiveByUserAndType(ctx, userID, purpose.TokenType())
	} else {
		recs, err = s.store.FindActiveByUser(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]dto.SessionResponse, 0, len(recs))
	for _, r := range recs {
		sessions = append(sessions, dto.SessionResponse{
			ID:        r.ID,
			TokenType: r.TokenType,
			IssuedAt:  r.IssuedAt,
			ExpiresAt: r.ExpiresAt,
		})
	}
	return &dto.SessionsResponse{Sessions: sessions, ActiveCount: count}, nil
}

// RevokeSessions revokes every unrevoked token of the user, optionally only
// those of one purpose.
func (s *AuthService) RevokeSessions(ctx context.Context, userID uuid.UUID, purpose *tokens.Purpose) (int64, error) {
	ctx = context.WithoutCancel(ctx)
	if purpose != nil {
		return s.store.RevokeAllForUserAndType(ctx, userID, purpose.TokenType(), reasonSessionsRevoke)
	}
	return s.store.RevokeAllForUser(ctx, userID, reasonSessionsRevoke)
}

func (s *AuthService) refreshOwner(ctx context.Context, refreshToken string) (*models.User, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refreshToken is required", ErrValidationFailed)
	}

	claims, err := s.issuer.ValidateWithBlacklist(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Purpose() != tokens.PurposeRefresh {
		return nil, tokens.ErrInvalidToken
	}
	sub, err := claims.Identity()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", sub.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, tokens.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return &user, nil
}

func subjectOf(u *models.User) tokens.Subject {
	return tokens.Subject{UserID: u.ID, Username: u.Username, Email: u.Email}
}
