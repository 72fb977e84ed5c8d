package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/ikkim/shopauth-backend/internal/app/model"
	"github.com/ikkim/shopauth-backend/internal/app/repository"
	"github.com/ikkim/shopauth-backend/pkg/logger"
	"github.com/ikkim/shopauth-backend/pkg/util"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

const (
	opSignup         = "signup"
	opLogin          = "login"
	opLogout         = "logout"
	opResetRequest   = "reset_request"
	opResetValidate  = "reset_validate"
	opResetConfirm   = "reset_confirm"
	defaultMinLength = 1
)

// Notifier delivers a transactional email.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// OutcomeRecorder counts operation outcomes.
type OutcomeRecorder interface {
	Record(operation, outcome string)
}

// AuthOptions tunes the auth service. Zero values fall back to defaults.
type AuthOptions struct {
	BaseURL           string
	ResetTokenTTL     time.Duration
	MinPasswordLength int
	Now               func() time.Time
	Recorder          OutcomeRecorder
}

// SignupResult is a created account. NotificationErr is set when the
// confirmation email could not be sent; the account exists regardless.
type SignupResult struct {
	User            *model.User
	NotificationErr error
}

// ResetRequestResult describes an issued reset ticket. NotificationErr is set
// when the reset email could not be sent; the ticket is stored regardless.
type ResetRequestResult struct {
	User            *model.User
	Token           string
	ExpiresAt       time.Time
	NotificationErr error
}

type AuthService interface {
	Signup(ctx context.Context, email, password, confirmPassword string) (*SignupResult, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	Logout(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) (*ResetRequestResult, error)
	ValidateResetToken(ctx context.Context, token string) (*model.User, error)
	ConfirmPasswordReset(ctx context.Context, userID uint, newPassword string) (*model.User, error)
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
}

type authService struct {
	userRepo  repository.UserRepository
	hasher    util.PasswordHasher
	tokens    util.TokenGenerator
	notifier  Notifier
	validate  *validator.Validate
	baseURL   string
	resetTTL  time.Duration
	minLength int
	now       func() time.Time
	recorder  OutcomeRecorder
}

func NewAuthService(
	userRepo repository.UserRepository,
	hasher util.PasswordHasher,
	tokens util.TokenGenerator,
	notifier Notifier,
	opts AuthOptions,
) AuthService {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080"
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = model.ResetTokenExpiry
	}
	if opts.MinPasswordLength < defaultMinLength {
		opts.MinPasswordLength = defaultMinLength
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &authService{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		notifier:  notifier,
		validate:  newValidator(),
		baseURL:   opts.BaseURL,
		resetTTL:  opts.ResetTokenTTL,
		minLength: opts.MinPasswordLength,
		now:       opts.Now,
		recorder:  opts.Recorder,
	}
}

type signupInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *authService) Signup(ctx context.Context, email, password, confirmPassword string) (res *SignupResult, err error) {
	defer func() {
		var notifyErr error
		if res != nil {
			notifyErr = res.NotificationErr
		}
		s.record(opSignup, err, notifyErr)
	}()

	logger.Info("Attempting user signup", map[string]interface{}{
		"email": email,
	})

	if violations := s.validateSignup(email, password, confirmPassword); len(violations) > 0 {
		logger.Warn("Signup rejected: invalid input", map[string]interface{}{
			"email":      email,
			"violations": len(violations),
		})
		return nil, &ValidationError{Email: email, Violations: violations}
	}

	_, err = s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		logger.Warn("Signup failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailAlreadyExists
	case !errors.Is(err, repository.ErrNotFound):
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, storageError(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, internalError(err)
	}

	user := model.NewUser(email, hash)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		logger.Error("Failed to create user", err, map[string]interface{}{
			"email": email,
		})
		return nil, storageError(err)
	}

	logger.Info("User signed up successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})

	res = &SignupResult{User: user}
	msg, err := signupEmail(email)
	if err == nil {
		err = s.notifier.Send(ctx, email, msg.Subject, msg.Body)
	}
	if err != nil {
		logger.Warn("Failed to send signup email", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		res.NotificationErr = notificationError(err)
	}
	return res, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (user *model.User, err error) {
	defer func() { s.record(opLogin, err, nil) }()

	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err = s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, storageError(err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		logger.Error("Failed to verify password", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, internalError(err)
	}
	if !ok {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email":   email,
			"user_id": user.ID,
		})
		return nil, ErrInvalidCredentials
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})
	return user, nil
}

// Logout has no state to change here; sessions are torn down by the caller.
func (s *authService) Logout(ctx context.Context) error {
	s.record(opLogout, nil, nil)
	return nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) (res *ResetRequestResult, err error) {
	defer func() {
		var notifyErr error
		if res != nil {
			notifyErr = res.NotificationErr
		}
		s.record(opResetRequest, err, notifyErr)
	}()

	logger.Info("Processing password reset request", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Password reset requested for non-existent email", map[string]interface{}{
				"email": email,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to find user for password reset", err, map[string]interface{}{
			"email": email,
		})
		return nil, storageError(err)
	}

	token, err := s.tokens.Generate()
	if err != nil {
		logger.Error("Failed to generate reset token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, entropyError(err)
	}

	ticket := model.NewResetTicket(token, s.now(), s.resetTTL)
	user.IssueReset(ticket)
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to store reset ticket", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, storageError(err)
	}

	logger.Info("Password reset ticket issued", map[string]interface{}{
		"user_id":    user.ID,
		"expires_at": ticket.ExpiresAt,
	})

	res = &ResetRequestResult{
		User:      user,
		Token:     ticket.Token,
		ExpiresAt: ticket.ExpiresAt,
	}
	msg, err := resetEmail(s.baseURL, ticket.Token, ticket.ExpiresAt)
	if err == nil {
		err = s.notifier.Send(ctx, user.Email, msg.Subject, msg.Body)
	}
	if err != nil {
		logger.Warn("Failed to send password reset email", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		res.NotificationErr = notificationError(err)
	}
	return res, nil
}

func (s *authService) ValidateResetToken(ctx context.Context, token string) (user *model.User, err error) {
	defer func() { s.record(opResetValidate, err, nil) }()

	if token == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	user, err = s.userRepo.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Unknown reset token presented")
			return nil, ErrInvalidOrExpiredToken
		}
		logger.Error("Failed to look up reset token", err)
		return nil, storageError(err)
	}

	if !user.HasActiveReset(s.now()) || user.Reset.Token != token {
		logger.Warn("Expired reset token presented", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, ErrInvalidOrExpiredToken
	}
	return user, nil
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, userID uint, newPassword string) (user *model.User, err error) {
	defer func() { s.record(opResetConfirm, err, nil) }()

	logger.Info("Processing password reset confirmation", map[string]interface{}{
		"user_id": userID,
	})

	user, err = s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if violations := s.validatePassword("password", newPassword); len(violations) > 0 {
		return nil, &ValidationError{Email: user.Email, Violations: violations}
	}

	if !user.HasActiveReset(s.now()) {
		logger.Warn("Reset confirmation without an active ticket", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrInvalidOrExpiredToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		logger.Error("Failed to hash new password", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, internalError(err)
	}

	user.PasswordHash = hash
	user.ClearReset()
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to update user password", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, storageError(err)
	}

	logger.Info("Password reset successful", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

func (s *authService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	return s.findByID(ctx, id)
}

func (s *authService) findByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, storageError(err)
	}
	return user, nil
}

func (s *authService) validateSignup(email, password, confirmPassword string) []Violation {
	var violations []Violation

	err := s.validate.Struct(signupInput{
		Email:           email,
		Password:        password,
		ConfirmPassword: confirmPassword,
	})
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			violations = append(violations, Violation{Field: fe.Field(), Message: violationMessage(fe)})
		}
	}

	if password != "" {
		violations = append(violations, s.validatePassword("password", password)...)
	}
	return violations
}

// validatePassword applies the length policy to a single password.
func (s *authService) validatePassword(field, password string) []Violation {
	var violations []Violation
	switch {
	case password == "":
		violations = append(violations, Violation{Field: field, Message: "is required"})
	case utf8.RuneCountInString(password) < s.minLength:
		violations = append(violations, Violation{Field: field, Message: "is too short"})
	case len(password) > maxPasswordBytes:
		violations = append(violations, Violation{Field: field, Message: "is too long"})
	}
	return violations
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "eqfield":
		return "does not match password"
	default:
		return "is invalid"
	}
}

func (s *authService) record(operation string, err, notifyErr error) {
	if s.recorder == nil {
		return
	}
	outcome := Outcome(err)
	if err == nil && notifyErr != nil {
		outcome = Outcome(notifyErr)
	}
	s.recorder.Record(operation, outcome)
}
