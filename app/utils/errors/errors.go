package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents specific error types
type ErrorCode string

const (
	// Authentication and authorization errors
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeAuthFailure         ErrorCode = "AUTH_FAILURE"
	ErrCodeRecoveryLinkExpired ErrorCode = "RECOVERY_LINK_EXPIRED"

	// Role resolution errors
	ErrCodeRoleLookupFailure ErrorCode = "ROLE_LOOKUP_FAILURE"

	// Sign-up errors
	ErrCodeProfileWriteFailure ErrorCode = "PROFILE_WRITE_FAILURE"

	// Validation errors
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// System errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeProviderError ErrorCode = "PROVIDER_ERROR"
	ErrCodeConfigError   ErrorCode = "CONFIG_ERROR"

	// Rate limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Generic errors
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getHTTPStatusCode(code),
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: getHTTPStatusCode(code),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getHTTPStatusCode(code),
		Cause:      cause,
	}
}

// AsAppError converts an error to AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// GetHTTPStatusCode gets the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func getHTTPStatusCode(code ErrorCode) int {
	switch code {
	case ErrCodeUnauthorized, ErrCodeAuthFailure:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeValidationFailed, ErrCodeInvalidInput, ErrCodeBadRequest,
		ErrCodeRecoveryLinkExpired:
		return http.StatusBadRequest
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeProviderError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Predefined common errors
var (
	ErrUnauthorized = New(ErrCodeUnauthorized, "authentication required")
	ErrForbidden    = New(ErrCodeForbidden, "access denied")
	ErrAuthFailure  = New(ErrCodeAuthFailure, "invalid credentials")
	ErrInternal     = New(ErrCodeInternalError, "internal server error")
)

// NewAuthFailure creates a user-facing authentication failure.
// Recovered locally, never escalated.
func NewAuthFailure(details string) *AppError {
	return New(ErrCodeAuthFailure, "invalid credentials").WithDetails(details)
}

// NewRoleLookupFailure wraps a role fetch error. Callers recover by
// falling back to cached-or-unresolved role.
func NewRoleLookupFailure(cause error) *AppError {
	return Wrap(ErrCodeRoleLookupFailure, "role lookup failed", cause)
}

// NewProfileWriteFailure wraps a profile write error during sign-up.
// The already-created identity is left intact.
func NewProfileWriteFailure(cause error) *AppError {
	return Wrap(ErrCodeProfileWriteFailure, "profile write failed", cause)
}

// NewProviderError wraps an identity provider transport error
func NewProviderError(cause error) *AppError {
	return Wrap(ErrCodeProviderError, "identity provider error", cause)
}

// NewValidationError creates a validation error with details
func NewValidationError(details string) *AppError {
	return New(ErrCodeValidationFailed, "validation failed").WithDetails(details)
}
