package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrValidation is returned for empty or malformed user input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned for a wrong password, an unknown
	// account or a disabled account. The three are deliberately not told apart.
	ErrInvalidCredentials = errors.New("invalid account or password")
	// ErrUnauthenticated is returned when no valid identity artifact is presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrStorageUnavailable is returned when a backing store fails.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("record already exists")
)

// LockedError is returned while an account is locked out.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account temporarily locked, retry after %s", e.RetryAfter.Round(time.Second))
}

// RetryAfterSeconds rounds the remaining lock time up to whole seconds.
func (e *LockedError) RetryAfterSeconds() int {
	secs := int(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}

// ForbiddenError is returned when a valid identity lacks the required role.
type ForbiddenError struct {
	Required []string
}

func (e *ForbiddenError) Error() string {
	return "access denied, required roles: " + strings.Join(e.Required, ", ")
}

// Validation wraps ErrValidation with a user-facing message.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Storage wraps err as ErrStorageUnavailable.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	RetryAfter int
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:      e.Message,
		Code:       e.Code,
		RetryAfter: e.RetryAfter,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var locked *LockedError
	var forbidden *ForbiddenError

	switch {
	case errors.As(err, &locked):
		httpErr := NewHTTPError(http.StatusTooManyRequests, "account temporarily locked, try again later", "ACCOUNT_LOCKED")
		httpErr.RetryAfter = locked.RetryAfterSeconds()
		return httpErr
	case errors.As(err, &forbidden):
		return NewHTTPError(http.StatusForbidden, forbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthenticated.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, ErrNotFound.Error(), "NOT_FOUND")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, ErrStorageUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, "service temporarily unavailable", "STORAGE_UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
