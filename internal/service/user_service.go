package service

import (
	"context"
	"errors"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"

	"accessible-backend/internal/apperr"
	"accessible-backend/internal/model"
	"accessible-backend/internal/storage"
	"accessible-backend/pkg/logger"
)

// DeleteConfirmation must be typed verbatim to delete an account.
const DeleteConfirmation = "DELETE_MY_ACCOUNT"

// Activity log page bounds.
const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 100
)

type UserService struct {
	store      storage.Storage
	checker    PasswordChecker
	appVersion string
	now        func() time.Time
}

// PasswordChecker verifies a user's current password.
type PasswordChecker interface {
	CheckPassword(user *model.User, password string) bool
}

func NewUserService(store storage.Storage, checker PasswordChecker, appVersion string) *UserService {
	return &UserService{
		store:      store,
		checker:    checker,
		appVersion: appVersion,
		now:        time.Now,
	}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, apperr.New(apperr.ErrUserNotFound, "User not found").WithFocus("error-message")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "Could not load the profile", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of req and returns the updated
// user with the JSON names of the fields that changed.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req model.ProfileUpdateRequest) (*model.User, []string, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if req.Empty() {
		return user, nil, nil
	}

	var fields []apperr.FieldError
	var updated []string
	p := &user.Profile

	if req.FirstName != nil {
		name, fe := ValidateName("first_name", "first name", *req.FirstName)
		if fe != nil {
			fields = append(fields, *fe)
		} else {
			p.FirstName = name
			updated = append(updated, "first_name")
		}
	}
	if req.LastName != nil {
		name, fe := ValidateName("last_name", "last name", *req.LastName)
		if fe != nil {
			fields = append(fields, *fe)
		} else {
			p.LastName = name
			updated = append(updated, "last_name")
		}
	}
	if req.Phone != nil {
		phone, fe := ValidatePhone(*req.Phone)
		if fe != nil {
			fields = append(fields, *fe)
		} else {
			p.Phone = phone
			updated = append(updated, "phone")
		}
	}
	if req.PreferredLanguage != nil {
		p.PreferredLanguage = *req.PreferredLanguage
		updated = append(updated, "preferred_language")
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil || *req.Timezone == "" {
			fields = append(fields, apperr.FieldError{
				Field:      "timezone",
				Message:    "Unknown time zone",
				Suggestion: "Use an IANA time zone such as America/Bogota",
			})
		} else {
			p.Timezone = *req.Timezone
			updated = append(updated, "timezone")
		}
	}

	if len(fields) > 0 {
		return nil, nil, apperr.Validation("The profile data has errors", fields...)
	}

	user.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, nil, apperr.Wrap(apperr.ErrDatabase, "Could not update the profile", err)
	}
	return user, updated, nil
}

// DeleteAccount removes user and their activity log after the typed
// confirmation and, when given, the current password check.
func (s *UserService) DeleteAccount(ctx context.Context, user *model.User, req model.DeleteAccountRequest) error {
	if req.ConfirmDeletion != DeleteConfirmation {
		return apperr.Validation("Confirmation is required to delete the account", apperr.FieldError{
			Field:      "confirm_deletion",
			Message:    "Type " + DeleteConfirmation + " to confirm",
			Suggestion: "Type exactly " + DeleteConfirmation + " to confirm the deletion",
		}).WithFocus("confirm-deletion-field")
	}
	if req.Password != "" && !s.checker.CheckPassword(user, req.Password) {
		return apperr.Validation("Incorrect password", apperr.FieldError{
			Field:      "password",
			Message:    "Incorrect password for confirming the deletion",
			Suggestion: "Enter your current password",
		}).WithFocus("password-field")
	}

	if err := s.store.DeleteEvents(ctx, user.ID); err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "Could not delete the account", err)
	}
	if err := s.store.DeleteUser(ctx, user.ID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.New(apperr.ErrUserNotFound, "User not found")
		}
		return apperr.Wrap(apperr.ErrDatabase, "Could not delete the account", err)
	}

	logger.WithFields(logger.Fields{"user_id": user.ID}).Info("account deleted")
	return nil
}

// ActivityLog returns the newest limit events for userID.
func (s *UserService) ActivityLog(ctx context.Context, userID string, limit int) ([]*model.AccessibilityEvent, error) {
	if limit < 1 || limit > MaxActivityLimit {
		return nil, apperr.Validation("The limit is out of range", apperr.FieldError{
			Field:      "limit",
			Message:    "Limit must be between 1 and 100",
			Suggestion: "Use a limit between 1 and 100",
		})
	}

	events, err := s.store.ListEvents(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "Could not load the activity log", err)
	}
	return events, nil
}

// LogEvent appends an entry to the user's activity log.
func (s *UserService) LogEvent(ctx context.Context, userID string, eventType model.EventType, details map[string]any, userAgent string) error {
	if !eventType.Valid() {
		return apperr.Validation("Unknown event type", apperr.FieldError{
			Field:      "event_type",
			Message:    "Unknown event type " + string(eventType),
			Suggestion: "Use one of preference_changed, error_encountered, feature_used, tts_used, voice_command_used, navigation_error",
		})
	}
	if details == nil {
		details = map[string]any{}
	}

	event := &model.AccessibilityEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		Timestamp:  s.now().UTC(),
		EventType:  eventType,
		Details:    details,
		UserAgent:  userAgent,
		AppVersion: s.appVersion,
	}
	if err := s.store.AddEvent(ctx, event); err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "Could not record the activity", err)
	}
	return nil
}

// logEventQuietly records an event whose loss should not fail the request.
func (s *UserService) logEventQuietly(ctx context.Context, userID string, eventType model.EventType, details map[string]any, userAgent string) {
	if err := s.LogEvent(ctx, userID, eventType, details, userAgent); err != nil {
		logger.WithFields(logger.Fields{
			"user_id":    userID,
			"event_type": eventType,
			"error":      err,
		}).Warn("could not record accessibility event")
	}
}

// RecordLogout notes a sign-out in the activity log.
func (s *UserService) RecordLogout(ctx context.Context, userID, userAgent string) {
	s.logEventQuietly(ctx, userID, model.EventFeatureUsed, map[string]any{"event": "logout"}, userAgent)
}
