package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrStorage               = errors.New("storage failure")
	ErrEntropyUnavailable    = errors.New("entropy unavailable")
	ErrNotificationFailed    = errors.New("notification failed")
	ErrInternal              = errors.New("internal error")
)

// Violation is a single rejected input field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in one submission together
// with the email that was submitted, so a form can be shown again.
type ValidationError struct {
	Email      string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func entropyError(err error) error {
	return fmt.Errorf("%w: %w", ErrEntropyUnavailable, err)
}

func internalError(err error) error {
	return fmt.Errorf("%w: %w", ErrInternal, err)
}

func notificationError(err error) error {
	return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
}

// Outcome names the kind of err for metrics labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrEmailAlreadyExists):
		return "duplicate_email"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return "invalid_token"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	case errors.Is(err, ErrEntropyUnavailable):
		return "entropy_unavailable"
	case errors.Is(err, ErrNotificationFailed):
		return "notification_failed"
	default:
		return "internal_error"
	}
}
