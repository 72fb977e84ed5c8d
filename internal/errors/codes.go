package errors

// Error codes returned in the "error" field of every error body.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to their own messages.

const (
	// ==================== AUTH_ ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email or password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // session token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // malformed session token
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"       // logged out
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthResetTokenInvalid  = "AUTH_RESET_TOKEN_INVALID" // never issued, used, superseded or expired

	// ==================== VALIDATION_ ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"

	// ==================== RESOURCE_ ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"

	// ==================== INTERNAL_ ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalEntropyError  = "INTERNAL_ENTROPY_ERROR"
)
