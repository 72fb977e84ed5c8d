package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopauth-backend/internal/app/service"
)

// Operation names understood by ParseError.
const (
	ContextSignup  = "signup"
	ContextLogin   = "login"
	ContextReset   = "reset"
	ContextConfirm = "confirm"
	ContextProfile = "profile"
)

const tryAgainMessage = "Something went wrong. Please try again"

// ErrorInfo is the HTTP rendering of a service error.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError maps a service error to a status, code and message. Internal
// causes are never exposed; context selects wording that does not reveal
// whether an account exists.
func ParseError(err error, context string) ErrorInfo {
	switch {
	case errors.Is(err, service.ErrValidation):
		return ErrorInfo{http.StatusBadRequest, ValidationInvalidInput, "Invalid input"}

	case errors.Is(err, service.ErrEmailAlreadyExists):
		return ErrorInfo{http.StatusConflict, AuthEmailAlreadyExists, "This email is already used."}

	case errors.Is(err, service.ErrUserNotFound):
		if context == ContextLogin {
			return ErrorInfo{http.StatusUnauthorized, AuthInvalidCredentials, "Invalid email or password"}
		}
		return ErrorInfo{http.StatusNotFound, ResourceNotFound, "User not found"}

	case errors.Is(err, service.ErrInvalidCredentials):
		return ErrorInfo{http.StatusUnauthorized, AuthInvalidCredentials, "Invalid email or password"}

	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		return ErrorInfo{http.StatusBadRequest, AuthResetTokenInvalid, "This reset link is invalid or has expired"}

	case errors.Is(err, service.ErrStorage):
		return ErrorInfo{http.StatusInternalServerError, InternalDatabaseError, tryAgainMessage}

	case errors.Is(err, service.ErrEntropyUnavailable):
		return ErrorInfo{http.StatusInternalServerError, InternalEntropyError, tryAgainMessage}

	default:
		return ErrorInfo{http.StatusInternalServerError, InternalServerError, tryAgainMessage}
	}
}

// RespondWithServiceError writes the body ParseError selects for err.
func RespondWithServiceError(c *gin.Context, err error, context string) {
	info := ParseError(err, context)
	RespondWithError(c, info.Status, info.Code, info.Message)
}
