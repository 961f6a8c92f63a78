// Package tokens issues, validates and revokes signed bearer tokens.
package tokens

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// Purpose is the closed set of token kinds. Only refresh tokens carry the
// token_type claim; its absence means an access token.
type Purpose int

const (
	PurposeAccess Purpose = iota
	PurposeRefresh
)

const refreshClaimValue = "refresh"

func (p Purpose) String() string {
	if p == PurposeRefresh {
		return "refresh"
	}
	return "access"
}

func (p Purpose) TokenType() models.TokenType {
	if p == PurposeRefresh {
		return models.TokenTypeRefresh
	}
	return models.TokenTypeAccess
}

// ParsePurpose accepts "access" or "refresh" (case-sensitive).
func ParsePurpose(s string) (Purpose, bool) {
	switch s {
	case "access":
		return PurposeAccess, true
	case refreshClaimValue:
		return PurposeRefresh, true
	}
	return PurposeAccess, false
}

// Subject is the identity a token is issued for.
type Subject struct {
	UserID   uuid.UUID
	Username string
	Email    string
}

// Claims is the signed payload.
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Purpose() Purpose {
	if c.TokenType == refreshClaimValue {
		return PurposeRefresh
	}
	return PurposeAccess
}

// Identity decodes the identity fields. A user_id that is not a UUID makes the
// token invalid.
func (c *Claims) Identity() (Subject, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return Subject{}, ErrInvalidToken
	}
	return Subject{UserID: id, Username: c.Username, Email: c.Email}, nil
}
