package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "Doctor not found")
		assert.Equal(t, "NOT_FOUND: Doctor not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(ErrCodeRemoteFailure, "Could not reach doctor service", cause)
		assert.Contains(t, err.Error(), "REMOTE_FAILURE")
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "session", "reason": "must be FN or AN"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Unauthorized", func() *AppError { return Unauthorized("test") }, ErrCodeUnauthorized},
		{"Forbidden", func() *AppError { return Forbidden("test") }, ErrCodeForbidden},
		{"CorruptSession", func() *AppError { return CorruptSession(errors.New("bad blob")) }, ErrCodeCorruptSession},
		{"SessionExpired", func() *AppError { return SessionExpired() }, ErrCodeSessionExpired},
		{"SlotUnavailable", func() *AppError { return SlotUnavailable("2026-03-02", "FN") }, ErrCodeSlotUnavailable},
		{"IncompleteSelection", func() *AppError { return IncompleteSelection("date") }, ErrCodeIncompleteSelection},
		{"NotFound", func() *AppError { return NotFound("Appointment") }, ErrCodeNotFound},
		{"ValidationError", func() *AppError { return ValidationError("test") }, ErrCodeValidation},
		{"InvalidInput", func() *AppError { return InvalidInput("email", "invalid") }, ErrCodeInvalidInput},
		{"MissingRequired", func() *AppError { return MissingRequired("email") }, ErrCodeMissingRequired},
		{"RateLimitExceeded", func() *AppError { return RateLimitExceeded() }, ErrCodeRateLimitExceeded},
		{"RemoteFailure", func() *AppError { return RemoteFailure("doctor", errors.New("timeout")) }, ErrCodeRemoteFailure},
		{"RemoteRejected", func() *AppError { return RemoteRejected("slot taken") }, ErrCodeRemoteRejected},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
		{"Storage", func() *AppError { return Storage(errors.New("disk")) }, ErrCodeStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.constructor()
			assert.Equal(t, tt.expectedCode, err.Code)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestRemoteRejectedFallback(t *testing.T) {
	err := RemoteRejected("")
	assert.Equal(t, ErrCodeRemoteRejected, err.Code)
	assert.NotEmpty(t, err.Message)
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(SessionExpired(), ErrCodeSessionExpired))
	assert.False(t, HasCode(SessionExpired(), ErrCodeCorruptSession))
	assert.False(t, HasCode(errors.New("plain"), ErrCodeInternal))
	assert.False(t, HasCode(nil, ErrCodeInternal))
}
