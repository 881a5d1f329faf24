package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Session lifecycle
	ErrCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden      ErrorCode = "FORBIDDEN"
	ErrCodeCorruptSession ErrorCode = "CORRUPT_SESSION"
	ErrCodeSessionExpired ErrorCode = "SESSION_EXPIRED"

	// Booking / availability
	ErrCodeSlotUnavailable     ErrorCode = "SLOT_UNAVAILABLE"
	ErrCodeIncompleteSelection ErrorCode = "INCOMPLETE_SELECTION"

	// Validation
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Rate Limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Remote hospital services
	ErrCodeRemoteFailure  ErrorCode = "REMOTE_FAILURE"
	ErrCodeRemoteRejected ErrorCode = "REMOTE_REJECTED"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeStorage  ErrorCode = "STORAGE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

// CorruptSession marks a persisted credential that could not be decoded.
// It is resolved locally to a logged-out state and never retried.
func CorruptSession(cause error) *AppError {
	return Wrap(ErrCodeCorruptSession, "Stored session credential is unreadable", cause)
}

// SessionExpired marks a credential whose expiry instant has passed.
func SessionExpired() *AppError {
	return New(ErrCodeSessionExpired, "Your session has expired. Please sign in again.")
}

func SlotUnavailable(date string, session string) *AppError {
	return New(ErrCodeSlotUnavailable, fmt.Sprintf("Slot %s %s is not available", date, session))
}

func IncompleteSelection(field string) *AppError {
	return New(ErrCodeIncompleteSelection, fmt.Sprintf("%s is required to submit this request", field))
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func MissingRequired(field string) *AppError {
	return New(ErrCodeMissingRequired, fmt.Sprintf("%s is required", field))
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

// RemoteFailure covers transport-level problems reaching a hospital service:
// timeouts, connection errors, or a non-2xx reply without a parseable envelope.
func RemoteFailure(service string, cause error) *AppError {
	return Wrap(ErrCodeRemoteFailure, fmt.Sprintf("Could not reach %s service", service), cause)
}

// RemoteRejected covers a well-formed envelope with success=false; the
// server-provided message is surfaced verbatim.
func RemoteRejected(message string) *AppError {
	if message == "" {
		message = "The request was rejected by the hospital service"
	}
	return New(ErrCodeRemoteRejected, message)
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Storage(cause error) *AppError {
	return Wrap(ErrCodeStorage, "Session storage error", cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
