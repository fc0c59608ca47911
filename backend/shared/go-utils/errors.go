// backend/shared/go-utils/errors.go
package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds crossing the service boundary. Services wrap them in an
// *AppError; errors.Is matches an AppError against its kind.
var (
	ErrValidation         = errors.New("validation_error")
	ErrAuthentication     = errors.New("authentication_error")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTokenFormat = errors.New("invalid_token_format")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")

	// Unique violations reported by the users repository.
	ErrEmailExists  = errors.New("email_exists")
	ErrHandleExists = errors.New("handle_exists")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")

	// For rate limiting
	ErrRateLimitExceeded = errors.New("rate_limit_exceeded")

	// For external service failures (SendGrid)
	ErrExternalServiceFailure = errors.New("external_service_failure")

	ErrNoRowsUpdated = errors.New("no_rows_updated")
)

// Public messages. Authentication failures never say why.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgNotAuthorized      = "Not authorized, token failed"
	MsgUnexpected         = "An unexpected error occurred"
)

// AppError carries a classified failure from services to controllers.
// Err holds the cause for server-side logs and is never rendered.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Kind       error
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func NewValidationError(message string, details any) *AppError {
	return &AppError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrCodeValidation,
		Message:    message,
		Kind:       ErrValidation,
		Details:    details,
	}
}

// NewAuthenticationError always renders the same message for a given
// flow; cause is logged only.
func NewAuthenticationError(message string, cause error) *AppError {
	return &AppError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrCodeUnauthorized,
		Message:    message,
		Kind:       ErrAuthentication,
		Err:        cause,
	}
}

// NewConflictError names the colliding field, e.g. "email".
func NewConflictError(field string) *AppError {
	return &AppError{
		StatusCode: http.StatusConflict,
		Code:       ErrCodeConflict,
		Message:    fmt.Sprintf("A user with this %s already exists", field),
		Kind:       ErrConflict,
		Details:    map[string]string{"field": field},
	}
}

func NewForbiddenError() *AppError {
	return &AppError{
		StatusCode: http.StatusForbidden,
		Code:       ErrCodeForbidden,
		Message:    "Insufficient permissions",
		Kind:       ErrForbidden,
	}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		Code:       ErrCodeNotFound,
		Message:    message,
		Kind:       ErrNotFound,
	}
}

func NewRateLimitError(cause error) *AppError {
	return &AppError{
		StatusCode: http.StatusTooManyRequests,
		Code:       ErrCodeRateLimitExceeded,
		Message:    "Too many requests, please try again later",
		Kind:       ErrRateLimitExceeded,
		Err:        cause,
	}
}

// NewInternalError hides cause behind the generic 500 message.
func NewInternalError(cause error) *AppError {
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrCodeInternal,
		Message:    MsgUnexpected,
		Err:        cause,
	}
}

// HandleAppError centralizes responding to AppErrors. A bare
// ErrInvalidTokenFormat surfaces as an authentication failure.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, appErr.Details, appErr.Err)
	case errors.Is(err, ErrInvalidTokenFormat):
		RespondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, MsgNotAuthorized, nil, err)
	default:
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, MsgUnexpected, nil, err)
	}
}
