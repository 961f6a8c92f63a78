package tokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	ReasonRefreshed = "Token refreshed"
	ReasonLogout    = "User logout"
)

// Issuer signs tokens with a process-wide HMAC secret and keeps a revocable
// record of every token it hands out.
type Issuer struct {
	store   store.TokenStore
	secret  []byte
	issuer  string
	revoked *cache.Cache
	nowFunc func() time.Time
}

type Option func(*Issuer)

func WithNowFunc(now func() time.Time) Option {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

// WithRevokedCache replaces the cache of hashes known to be revoked.
func WithRevokedCache(c *cache.Cache) Option {
	return func(i *Issuer) {
		i.revoked = c
	}
}

func NewIssuer(tokenStore store.TokenStore, secret, issuer string, opts ...Option) *Issuer {
	i := &Issuer{
		store:  tokenStore,
		secret: []byte(secret),
		issuer: issuer,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.nowFunc == nil {
		i.nowFunc = time.Now
	}
	if i.revoked == nil {
		i.revoked = cache.New(10*time.Minute, time.Minute)
	}
	return i
}

// Hash is the hex SHA-256 digest used as the store lookup key.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Generate signs a token for sub and persists its record. No token is
// returned unless the record was stored.
func (i *Issuer) Generate(ctx context.Context, sub Subject, duration time.Duration, purpose Purpose) (string, error) {
	issuedAt := i.nowFunc().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(duration)

	claims := &Claims{
		UserID:   sub.UserID.String(),
		Username: sub.Username,
		Email:    sub.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sub.UserID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if purpose == PurposeRefresh {
		claims.TokenType = refreshClaimValue
	}

	rec, err := models.NewTokenRecord(sub.UserID, "", purpose.TokenType(), issuedAt, expiresAt)
	if err != nil {
		return "", fmt.Errorf("build token record: %w", err)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	rec.TokenHash = Hash(signed)

	if _, err := i.store.Save(context.WithoutCancel(ctx), rec); err != nil {
		return "", fmt.Errorf("persist token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, issuer and expiry without consulting the store.
func (i *Issuer) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.nowFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.Identity(); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateWithBlacklist rejects revoked tokens before any signature work and
// otherwise behaves like Validate. Request authentication must use this.
func (i *Issuer) ValidateWithBlacklist(ctx context.Context, token string) (*Claims, error) {
	revoked, err := i.isRevoked(ctx, Hash(token))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return i.Validate(token)
}

// Revoke blacklists token. Revoking an unknown or already revoked token is
// not an error.
func (i *Issuer) Revoke(ctx context.Context, token, reason string) error {
	hash := Hash(token)
	n, err := i.store.RevokeByHash(context.WithoutCancel(ctx), hash, reason)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if n > 0 {
		i.revoked.SetDefault(hash, true)
	}
	return nil
}

// Refresh rotates oldToken: it is revoked first, then a token with the same
// subject and purpose is issued. If issuance fails the caller holds no usable
// token and must re-authenticate.
func (i *Issuer) Refresh(ctx context.Context, oldToken string, duration time.Duration) (string, error) {
	claims, err := i.Validate(oldToken)
	if err != nil {
		return "", err
	}
	sub, err := claims.Identity()
	if err != nil {
		return "", err
	}
	if err := i.Revoke(ctx, oldToken, ReasonRefreshed); err != nil {
		return "", err
	}
	fresh, err := i.Generate(ctx, sub, duration, claims.Purpose())
	if err != nil {
		slog.Warn("token rotated without replacement", "user_id", sub.UserID.String(), "error", err)
		return "", err
	}
	return fresh, nil
}

// ExtractUserID decodes the owner of a signature-valid, unexpired token.
func (i *Issuer) ExtractUserID(token string) (uuid.UUID, error) {
	claims, err := i.Validate(token)
	if err != nil {
		return uuid.Nil, err
	}
	sub, err := claims.Identity()
	if err != nil {
		return uuid.Nil, err
	}
	return sub.UserID, nil
}

// IsExpired reports true for a correctly signed but expired token and
// ErrInvalidToken for anything that does not verify.
func (i *Issuer) IsExpired(token string) (bool, error) {
	_, err := i.Validate(token)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, ErrTokenExpired):
		return true, nil
	default:
		return false, err
	}
}

func (i *Issuer) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return i.secret, nil
}

// isRevoked only caches positive answers: revocation never reverses.
func (i *Issuer) isRevoked(ctx context.Context, hash string) (bool, error) {
	if _, found := i.revoked.Get(hash); found {
		return true, nil
	}
	revoked, err := i.store.IsRevoked(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		i.revoked.SetDefault(hash, true)
	}
	return revoked, nil
}
