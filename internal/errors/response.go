package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`   // code from codes.go
	Message string `json:"message"` // human readable
}

// RespondWithError writes an error body with the given status and code.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Login required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Something went wrong. Please try again"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// FieldError is one rejected form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every rejected field and the submitted values that
// are safe to echo back, so the client can redisplay the form.
type ValidationError struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Fields    []FieldError      `json:"fields,omitempty"`
	Submitted map[string]string `json:"submitted,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields []FieldError, submitted map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:     ValidationInvalidInput,
		Message:   "Invalid input",
		Fields:    fields,
		Submitted: submitted,
	})
}
