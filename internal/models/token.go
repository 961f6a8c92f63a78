package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "ACCESS"
	TokenTypeRefresh TokenType = "REFRESH"
)

func (t TokenType) Valid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

var (
	ErrTokenWindow = errors.New("token issued_at must not be after expires_at")
	ErrTokenType   = errors.New("unknown token type")
)

// TokenRecord is the persisted, revocable trace of an issued bearer token.
// Only the SHA-256 hash of the bearer string is stored.
type TokenRecord struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_auth_tokens_active,priority:1" json:"userId"`
	TokenHash     string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	TokenType     TokenType  `gorm:"size:10;not null;index:idx_auth_tokens_active,priority:2" json:"tokenType"`
	IssuedAt      time.Time  `gorm:"not null" json:"issuedAt"`
	ExpiresAt     time.Time  `gorm:"not null;index:idx_auth_tokens_active,priority:4;index" json:"expiresAt"`
	IsRevoked     bool       `gorm:"not null;default:false;index:idx_auth_tokens_active,priority:3" json:"isRevoked"`
	RevokedAt     *time.Time `json:"revokedAt,omitempty"`
	RevokedReason *string    `gorm:"size:255" json:"revokedReason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	User          User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (TokenRecord) TableName() string { return "auth_tokens" }

// NewTokenRecord builds an active record, rejecting an inverted issue/expiry window.
func NewTokenRecord(userID uuid.UUID, tokenHash string, tokenType TokenType, issuedAt, expiresAt time.Time) (*TokenRecord, error) {
	if !tokenType.Valid() {
		return nil, ErrTokenType
	}
	if issuedAt.After(expiresAt) {
		return nil, ErrTokenWindow
	}
	return &TokenRecord{
		UserID:    userID,
		TokenHash: tokenHash,
		TokenType: tokenType,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func (t *TokenRecord) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Active reports whether the token is unrevoked and unexpired at now.
func (t *TokenRecord) Active(now time.Time) bool {
	return !t.IsRevoked && t.ExpiresAt.After(now)
}
