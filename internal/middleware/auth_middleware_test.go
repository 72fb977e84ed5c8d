package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/shopauth-backend/internal/errors"
	"github.com/ikkim/shopauth-backend/pkg/logger"
	"github.com/ikkim/shopauth-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeBlacklist) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[sessionID], nil
}

func setupMiddlewareTest(blacklist SessionBlacklist) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())

	auth := NewAuthMiddleware(testJWTSecret, blacklist)
	router.GET("/test", auth.Authenticate(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		email, _ := GetUserEmail(c)
		sessionID, expiresAt, _ := GetSession(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":    userID,
			"email":      email,
			"session_id": sessionID,
			"expires_at": expiresAt.Unix(),
		})
	})
	return router
}

func generateTestToken(t *testing.T, expiry time.Duration) *util.SessionToken {
	token, err := util.GenerateSessionToken(1, "test@example.com", testJWTSecret, expiry, time.Now())
	require.NoError(t, err)
	return token
}

func sessionIDOf(t *testing.T, token string) string {
	claims, err := util.ValidateToken(token, testJWTSecret)
	require.NoError(t, err)
	return claims.ID
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	router := setupMiddlewareTest(&fakeBlacklist{})
	token := generateTestToken(t, 15*time.Minute)

	w := doRequest(router, "Bearer "+token.Token)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["user_id"])
	assert.Equal(t, "test@example.com", body["email"])
	assert.Equal(t, sessionIDOf(t, token.Token), body["session_id"])
	assert.Equal(t, float64(token.ExpiresAt.Unix()), body["expires_at"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware_Authenticate_Rejections(t *testing.T) {
	router := setupMiddlewareTest(nil)
	expired := generateTestToken(t, -time.Minute)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "No token", header: "", wantStatus: http.StatusUnauthorized, wantCode: apperrors.AuthUnauthorized},
		{name: "Invalid format", header: "Token abc", wantStatus: http.StatusUnauthorized, wantCode: apperrors.AuthTokenInvalid},
		{name: "Garbage token", header: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized, wantCode: apperrors.AuthTokenInvalid},
		{name: "Expired token", header: "Bearer " + expired.Token, wantStatus: http.StatusUnauthorized, wantCode: apperrors.AuthTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.header)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestAuthMiddleware_Authenticate_RevokedSession(t *testing.T) {
	token := generateTestToken(t, 15*time.Minute)
	blacklist := &fakeBlacklist{revoked: map[string]bool{sessionIDOf(t, token.Token): true}}
	router := setupMiddlewareTest(blacklist)

	w := doRequest(router, "Bearer "+token.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthTokenRevoked, errorCode(t, w))
}

func TestAuthMiddleware_Authenticate_BlacklistUnavailable(t *testing.T) {
	router := setupMiddlewareTest(&fakeBlacklist{err: errors.New("redis down")})
	token := generateTestToken(t, 15*time.Minute)

	w := doRequest(router, "Bearer "+token.Token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, GetLoggerFromContext(c))
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.Initialize(logger.Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { logger.Initialize(logger.Config{Level: "info", Format: "json"}) })
	return &buf
}

func TestLoggingMiddleware_LogsRouteNotResetToken(t *testing.T) {
	buf := captureLogs(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	router.GET("/api/v1/auth/reset/:token", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/v1/auth/reset/:token", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	token := "deadbeefcafebabe0123456789abcdef0123456789abcdefdeadbeefcafebabe"
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, "/api/v1/auth/reset/"+token, nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/"+token, nil))

	out := buf.String()
	assert.NotContains(t, out, token)
	assert.Contains(t, out, `"route":"/api/v1/auth/reset/:token"`)
	assert.Contains(t, out, `"route":"unmatched"`)
}

func TestAuthMiddleware_WarningsLogRouteTemplate(t *testing.T) {
	buf := captureLogs(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	auth := NewAuthMiddleware(testJWTSecret, nil)
	router.GET("/items/:secret", auth.Authenticate(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/items/s3cr3t-value", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, buf.String(), "Invalid authorization header format")
	assert.Contains(t, buf.String(), `"route":"/items/:secret"`)
	assert.NotContains(t, buf.String(), "s3cr3t-value")
}
