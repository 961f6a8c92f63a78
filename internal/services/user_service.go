package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 8
)

type UserService struct {
	db        *gorm.DB
	passwords PasswordVerifier
}

func NewUserService(db *gorm.DB, passwords PasswordVerifier) *UserService {
	return &UserService{db: db, passwords: passwords}
}

func (s *UserService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidationFailed, minPasswordLen)
	}

	var count int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: username or email already registered", ErrConflict)
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:  username,
		Email:     email,
		Password:  hash,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      models.RoleUser,
		IsActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// UsernameAvailable reports whether no account, deleted ones included, uses username.
func (s *UserService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return false, err
	}
	return s.available(ctx, "username = ?", username)
}

func (s *UserService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return false, err
	}
	return s.available(ctx, "email = ?", email)
}

func (s *UserService) available(ctx context.Context, query string, arg string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	return count == 0, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateUsername(username string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d-%d characters", ErrValidationFailed, minUsernameLen, maxUsernameLen)
	}
	if strings.Contains(username, "@") {
		return fmt.Errorf("%w: username cannot contain '@'", ErrValidationFailed)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidationFailed)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrValidationFailed)
	}
	return nil
}
