package services

import "errors"

var (
	ErrAuthenticationFailed = errors.New("invalid username/email or password")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrValidationFailed     = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("already exists")
)
