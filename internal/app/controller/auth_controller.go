package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopauth-backend/internal/app/service"
	apperrors "github.com/ikkim/shopauth-backend/internal/errors"
	"github.com/ikkim/shopauth-backend/internal/middleware"
	"github.com/ikkim/shopauth-backend/pkg/util"
)

const resetRequestedMessage = "If an account exists for that email, a password reset link has been sent"

// SessionRevoker blacklists a session until it would have expired.
type SessionRevoker interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
}

type AuthController struct {
	authService   service.AuthService
	revoker       SessionRevoker
	jwtSecret     string
	sessionExpiry time.Duration
	now           func() time.Time
}

func NewAuthController(authService service.AuthService, revoker SessionRevoker, jwtSecret string, sessionExpiry time.Duration) *AuthController {
	return &AuthController{
		authService:   authService,
		revoker:       revoker,
		jwtSecret:     jwtSecret,
		sessionExpiry: sessionExpiry,
		now:           time.Now,
	}
}

// SignupRequest carries no binding rules; the auth service reports every
// violation at once.
type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// Signup handles account creation
// POST /api/v1/auth/signup
func (ctrl *AuthController) Signup(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid signup request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Malformed request body")
		return
	}

	res, err := ctrl.authService.Signup(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		if respondValidation(c, err) {
			return
		}
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			log.Warn("Signup failed: email already exists", map[string]interface{}{
				"email": req.Email,
			})
		} else {
			log.Error("Signup failed", err, map[string]interface{}{
				"email": req.Email,
			})
		}
		apperrors.RespondWithServiceError(c, err, apperrors.ContextSignup)
		return
	}

	if res.NotificationErr != nil {
		log.Warn("Signup confirmation email not sent", map[string]interface{}{
			"user_id": res.User.ID,
			"error":   res.NotificationErr.Error(),
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":           "User registered successfully",
		"user":              res.User,
		"notification_sent": res.NotificationErr == nil,
	})
}

// Login handles credential login and issues a session token
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Email and password are required")
		return
	}

	user, err := ctrl.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		apperrors.RespondWithServiceError(c, err, apperrors.ContextLogin)
		return
	}

	session, err := util.GenerateSessionToken(user.ID, user.Email, ctrl.jwtSecret, ctrl.sessionExpiry, ctrl.now())
	if err != nil {
		log.Error("Failed to issue session token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"session": session,
	})
}

// Logout revokes the current session token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if err := ctrl.authService.Logout(c.Request.Context()); err != nil {
		log.Warn("Logout failed in auth service", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if sessionID, expiresAt, ok := middleware.GetSession(c); ok && ctrl.revoker != nil {
		if err := ctrl.revoker.Revoke(c.Request.Context(), sessionID, expiresAt.Sub(ctrl.now())); err != nil {
			log.Error("Failed to revoke session", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}

// RequestPasswordReset emails a reset link. The response never reveals
// whether the email belongs to an account.
// POST /api/v1/auth/reset
func (ctrl *AuthController) RequestPasswordReset(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "A valid email is required")
		return
	}

	res, err := ctrl.authService.RequestPasswordReset(c.Request.Context(), req.Email)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		log.Info("Password reset requested for unknown email")
	case err != nil:
		log.Error("Password reset request failed", err)
		apperrors.RespondWithServiceError(c, err, apperrors.ContextReset)
		return
	case res.NotificationErr != nil:
		log.Warn("Password reset email not sent", map[string]interface{}{
			"user_id": res.User.ID,
			"error":   res.NotificationErr.Error(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": resetRequestedMessage,
	})
}

// ValidateResetToken checks a reset link before the new-password form is shown
// GET /api/v1/auth/reset/:token
func (ctrl *AuthController) ValidateResetToken(c *gin.Context) {
	user, err := ctrl.authService.ValidateResetToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		apperrors.RespondWithServiceError(c, err, apperrors.ContextConfirm)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": user.ID,
	})
}

// ResetPassword sets a new password using a reset link
// POST /api/v1/auth/reset/:token
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Malformed request body")
		return
	}

	user, err := ctrl.authService.ValidateResetToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		apperrors.RespondWithServiceError(c, err, apperrors.ContextConfirm)
		return
	}

	if _, err := ctrl.authService.ConfirmPasswordReset(c.Request.Context(), user.ID, req.Password); err != nil {
		if respondValidation(c, err) {
			return
		}
		log.Warn("Password reset confirmation failed", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		apperrors.RespondWithServiceError(c, err, apperrors.ContextConfirm)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password has been reset",
	})
}

// GetMe returns the authenticated user
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		apperrors.RespondWithServiceError(c, err, apperrors.ContextProfile)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// respondValidation writes a field-level 400 when err is a validation failure.
func respondValidation(c *gin.Context, err error) bool {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		return false
	}

	fields := make([]apperrors.FieldError, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		fields = append(fields, apperrors.FieldError{Field: v.Field, Message: v.Message})
	}
	apperrors.RespondWithValidationError(c, fields, map[string]string{"email": verr.Email})
	return true
}
