package dto

import "time"

const (
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	CodeAccountInactive      = "ACCOUNT_INACTIVE"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeTooManyRequests      = "TOO_MANY_REQUESTS"
	CodeInternal             = "INTERNAL_ERROR"
)

// ErrorResponse is the envelope for every failed request.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
}

func NewErrorResponse(status int, code, message, path string) ErrorResponse {
	return ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Path:      path,
		Status:    status,
	}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
