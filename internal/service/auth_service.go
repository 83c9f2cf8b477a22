package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"accessible-backend/internal/apperr"
	"accessible-backend/internal/auth"
	"accessible-backend/internal/config"
	"accessible-backend/internal/model"
	"accessible-backend/internal/notify"
	"accessible-backend/internal/storage"
	"accessible-backend/pkg/logger"
)

type AuthService struct {
	store    storage.Storage
	tokens   *auth.TokenManager
	hasher   *auth.PasswordHasher
	security config.SecurityConfig
	mailer   notify.Mailer
	now      func() time.Time
}

func NewAuthService(store storage.Storage, tokens *auth.TokenManager, hasher *auth.PasswordHasher, security config.SecurityConfig, mailer notify.Mailer) *AuthService {
	return &AuthService{
		store:    store,
		tokens:   tokens,
		hasher:   hasher,
		security: security,
		mailer:   mailer,
		now:      time.Now,
	}
}

// Register validates req, creates the account and signs a first token pair.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResult, error) {
	var fields []apperr.FieldError

	email, fe := ValidateEmail(req.Email)
	if fe != nil {
		fields = append(fields, *fe)
	}
	if fe := CheckPassword(req.Password).FieldError(); fe != nil {
		fields = append(fields, *fe)
	}
	if req.Password != req.ConfirmPassword {
		fields = append(fields, apperr.FieldError{
			Field:      "confirm_password",
			Message:    "Passwords do not match",
			Suggestion: "Type the same password in both fields",
		})
	}

	profile := model.DefaultProfile()
	if req.FirstName != "" {
		name, fe := ValidateName("first_name", "first name", req.FirstName)
		if fe != nil {
			fields = append(fields, *fe)
		}
		profile.FirstName = name
	}
	if req.LastName != "" {
		name, fe := ValidateName("last_name", "last name", req.LastName)
		if fe != nil {
			fields = append(fields, *fe)
		}
		profile.LastName = name
	}
	if req.PreferredLanguage != "" {
		profile.PreferredLanguage = req.PreferredLanguage
	}

	if len(fields) > 0 {
		return nil, apperr.Validation("The registration form has errors", fields...)
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, apperr.Wrap(apperr.ErrDatabase, "Could not create the account", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, "Could not create the account", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  hash,
		CreatedAt:     now,
		UpdatedAt:     now,
		IsActive:      true,
		Profile:       profile,
		Accessibility: initialPreferences(req.VisualImpairmentLevel, req.ScreenReaderUser),
	}

	verifyToken, stored, err := auth.NewOneTimeToken(now, s.security.VerificationTokenTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, "Could not create the account", err)
	}
	user.Security.EmailVerification = stored

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, emailTaken()
		}
		return nil, apperr.Wrap(apperr.ErrDatabase, "Could not create the account", err)
	}

	logger.WithFields(logger.Fields{
		"user_id":          user.ID,
		"impairment_level": user.Accessibility.VisualImpairmentLevel,
		"screen_reader":    user.Accessibility.ScreenReaderUser,
	}).Info("user registered")

	// The account works without verification, so a mail failure is not fatal.
	sent := true
	if err := s.mailer.SendVerification(ctx, user.Email, user.Profile.FirstName, verifyToken); err != nil {
		sent = false
		logger.WithFields(logger.Fields{"user_id": user.ID, "error": err}).Warn("verification email not sent")
	}

	tokens, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResult{User: user, Tokens: tokens, VerificationSent: sent}, nil
}

func emailTaken() *apperr.AppError {
	err := apperr.New(apperr.ErrUserAlreadyExists, "An account with this email already exists").WithFocus("email-field")
	err.Fields = []apperr.FieldError{{
		Field:      "email",
		Message:    "Email already registered",
		Suggestion: "Use a different email or sign in if you already have an account",
	}}
	return err
}

// initialPreferences derives starting preferences from what the user told
// us at registration.
func initialPreferences(level string, screenReader bool) model.AccessibilityPreferences {
	prefs := model.DefaultPreferences()
	if level != "" {
		prefs.VisualImpairmentLevel = level
	}
	prefs.ScreenReaderUser = screenReader
	prefs.AudioDescriptionsEnabled = level == model.ImpairmentBlind || level == model.ImpairmentLowVision
	prefs.ExtendedTimeoutNeeded = level == model.ImpairmentBlind
	return prefs
}

// Login checks credentials and applies the failed-attempt lockout.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResult, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "Could not sign in", err)
	}
	if !user.IsActive {
		return nil, invalidCredentials()
	}

	now := s.now().UTC()
	if user.Security.LockedAt(now) {
		return nil, accountLocked(user.Security.AccountLockedUntil.Sub(now))
	}
	if user.Security.AccountLockedUntil != nil {
		// Lock expired; start counting again.
		user.Security.AccountLockedUntil = nil
		user.Security.FailedLoginAttempts = 0
	}

	if !s.hasher.Check(user.PasswordHash, req.Password) {
		user.Security.FailedLoginAttempts++
		locked := user.Security.FailedLoginAttempts >= s.security.MaxLoginAttempts
		if locked {
			until := now.Add(s.security.LockoutDuration)
			user.Security.AccountLockedUntil = &until
		}
		user.UpdatedAt = now
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return nil, apperr.Wrap(apperr.ErrDatabase, "Could not sign in", err)
		}

		logger.WithFields(logger.Fields{
			"user_id":  user.ID,
			"attempts": user.Security.FailedLoginAttempts,
			"locked":   locked,
		}).Warn("failed login")

		if locked {
			return nil, accountLocked(s.security.LockoutDuration)
		}
		return nil, invalidCredentials()
	}

	user.Security.FailedLoginAttempts = 0
	user.Security.LastLogin = &now
	user.UpdatedAt = now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "Could not sign in", err)
	}

	tokens, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResult{User: user, Tokens: tokens}, nil
}

func invalidCredentials() *apperr.AppError {
	err := apperr.New(apperr.ErrInvalidCredentials, "Incorrect email or password").WithFocus("password-field")
	err.Fields = []apperr.FieldError{{
		Field:      "password",
		Message:    "Invalid credentials",
		Suggestion: "Check your email and password",
	}}
	return err
}

func accountLocked(remaining time.Duration) *apperr.AppError {
	minutes := int(remaining.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	err := apperr.New(apperr.ErrAccountLocked,
		fmt.Sprintf("Account temporarily locked after too many failed attempts. Try again in %d minute(s)", minutes)).
		WithFocus("login-form")
	err.Fields = []apperr.FieldError{{
		Field:      "general",
		Message:    "Account temporarily locked",
		Suggestion: fmt.Sprintf("Wait %d minute(s) before trying again", minutes),
	}}
	return err
}

// ForgotPassword emails a reset link when email belongs to an active account.
// Unknown and inactive accounts are not an error, so callers cannot tell
// which addresses are registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	normalized, fe := ValidateEmail(email)
	if fe != nil {
		return apperr.Validation("The email address is not valid", *fe).WithFocus("email-field")
	}

	user, err := s.store.GetUserByEmail(ctx, normalized)
	if errors.Is(err, storage.ErrUserNotFound) {
		logger.Debugf("password reset requested for unknown address")
		return nil
	}
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "Could not process the request", err)
	}
	if !user.IsActive {
		return nil
	}

	now := s.now().UTC()
	plain, stored, err := auth.NewOneTimeToken(now, s.security.ResetTokenTTL)
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, "Could not process the request", err)
	}
	user.Security.PasswordReset = stored
	user.UpdatedAt = now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "Could not process the request", err)
	}

	// A delivery failure must look the same as an unknown address.
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Profile.FirstName, plain); err != nil {
		logger.WithFields(logger.Fields{"user_id": user.ID, "error": err}).Error("password reset email not sent")
		return nil
	}

	logger.WithFields(logger.Fields{"user_id": user.ID}).Info("password reset requested")
	return nil
}

// ResetPassword consumes a reset token and sets a new password. A successful
// reset also clears failed attempts and any lockout.
func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	var fields []apperr.FieldError
	if fe := CheckPassword(req.NewPassword).FieldError(); fe != nil {
		fe.Field = "new_password"
		fields = append(fields, *fe)
	}
	if req.NewPassword != req.ConfirmPassword {
		fields = append(fields, apperr.FieldError{
			Field:      "confirm_password",
			Message:    "Passwords do not match",
			Suggestion: "Type the same password in both fields",
		})
	}
	if len(fields) > 0 {
		return apperr.Validation("The new password is not valid", fields...).WithFocus("new-password-field")
	}

	now := s.now().UTC()
	user, err := s.userByToken(ctx, model.PurposePasswordReset, req.Token, now)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, "Could not reset the password", err)
	}
	user.PasswordHash = hash
	user.Security.PasswordReset = nil
	user.Security.FailedLoginAttempts = 0
	user.Security.AccountLockedUntil = nil
	user.UpdatedAt = now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "Could not reset the password", err)
	}

	logger.WithFields(logger.Fields{"user_id": user.ID}).Info("password reset completed")
	return nil
}

// VerifyEmail consumes a verification token and marks the address verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	now := s.now().UTC()
	user, err := s.userByToken(ctx, model.PurposeEmailVerification, token, now)
	if err != nil {
		return err
	}

	user.IsVerified = true
	user.Security.EmailVerification = nil
	user.UpdatedAt = now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "Could not verify the email", err)
	}

	logger.WithFields(logger.Fields{"user_id": user.ID}).Info("email verified")
	return nil
}

func (s *AuthService) userByToken(ctx context.Context, purpose model.TokenPurpose, token string, now time.Time) (*model.User, error) {
	user, err := s.store.GetUserByToken(ctx, purpose, auth.HashToken(strings.TrimSpace(token)))
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, invalidLink()
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "Could not check the link", err)
	}
	if !user.IsActive || !user.Security.Token(purpose).ValidAt(now) {
		return nil, invalidLink()
	}
	return user, nil
}

func invalidLink() *apperr.AppError {
	err := apperr.New(apperr.ErrInvalidInput, "The link is invalid or has expired").WithFocus("error-message")
	err.Fields = []apperr.FieldError{{
		Field:      "token",
		Message:    "Invalid or expired link",
		Suggestion: "Request a new link and use it within its validity period",
	}}
	return err
}

// Refresh exchanges a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.AuthResult, error) {
	claims, err := s.tokens.Verify(refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidToken, "Refresh token is invalid or expired", err).WithFocus("login-form")
	}

	user, err := s.activeUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	tokens, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResult{User: user, Tokens: tokens}, nil
}

// Authenticate resolves an access token to its active user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.tokens.Verify(accessToken, auth.TokenAccess)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidToken, "Invalid or expired session", err).WithFocus("login-form")
	}
	return s.activeUser(ctx, claims.Subject)
}

func (s *AuthService) activeUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, apperr.New(apperr.ErrUnauthorized, "User not found or inactive").WithFocus("login-form")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "Could not load the user", err)
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.ErrUnauthorized, "User not found or inactive").WithFocus("login-form")
	}
	return user, nil
}

// CheckPassword reports whether password belongs to user.
func (s *AuthService) CheckPassword(user *model.User, password string) bool {
	return s.hasher.Check(user.PasswordHash, password)
}

func (s *AuthService) issuePair(user *model.User) (model.TokenPair, error) {
	sub := auth.Subject{
		UserID:             user.ID,
		Email:              user.Email,
		AccessibilityLevel: user.Accessibility.VisualImpairmentLevel,
	}

	access, err := s.tokens.IssueAccess(sub)
	if err != nil {
		return model.TokenPair{}, apperr.Wrap(apperr.ErrInternal, "Could not create the session", err)
	}
	refresh, err := s.tokens.IssueRefresh(sub)
	if err != nil {
		return model.TokenPair{}, apperr.Wrap(apperr.ErrInternal, "Could not create the session", err)
	}

	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL() / time.Second),
	}, nil
}
