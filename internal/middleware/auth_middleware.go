package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopauth-backend/internal/errors"
	"github.com/ikkim/shopauth-backend/pkg/util"
)

// Context keys for session information
const (
	UserIDKey           = "user_id"
	UserEmailKey        = "user_email"
	SessionIDKey        = "session_id"
	SessionExpiresAtKey = "session_expires_at"
)

// SessionBlacklist reports sessions revoked at logout.
type SessionBlacklist interface {
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type AuthMiddleware struct {
	jwtSecret string
	blacklist SessionBlacklist
}

// NewAuthMiddleware builds the session check. A nil blacklist disables the
// revocation lookup.
func NewAuthMiddleware(jwtSecret string, blacklist SessionBlacklist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		blacklist: blacklist,
	}
}

// Authenticate validates the bearer session token (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"route": routeOf(c),
			})
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"route": routeOf(c),
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(parts[1], m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"route": routeOf(c),
				"error": err.Error(),
			})

			if stderrors.Is(err, util.ErrExpiredToken) {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "Session has expired")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid session token")
			}
			c.Abort()
			return
		}

		if m.blacklist != nil {
			revoked, err := m.blacklist.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.Error("Failed to check session blacklist", err, map[string]interface{}{
					"user_id": claims.UserID,
				})
				errors.InternalError(c, "")
				c.Abort()
				return
			}
			if revoked {
				log.Warn("Revoked session presented", map[string]interface{}{
					"user_id": claims.UserID,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenRevoked, "Session has been logged out")
				c.Abort()
				return
			}
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(SessionIDKey, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(SessionExpiresAtKey, claims.ExpiresAt.Time)
		}

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": claims.UserID,
		})

		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}

// GetSession returns the session id and expiry of the authenticated request.
func GetSession(c *gin.Context) (string, time.Time, bool) {
	id := c.GetString(SessionIDKey)
	if id == "" {
		return "", time.Time{}, false
	}
	return id, c.GetTime(SessionExpiresAtKey), true
}
