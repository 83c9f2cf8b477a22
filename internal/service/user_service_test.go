package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible-backend/internal/apperr"
	"accessible-backend/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "profile@example.com")

	user, updated, err := f.users.UpdateProfile(context.Background(), reg.User.ID, model.ProfileUpdateRequest{
		FirstName: ptr("  maría josé "),
		Phone:     ptr("300 123 4567"),
		Timezone:  ptr("UTC"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first_name", "phone", "timezone"}, updated)
	assert.Equal(t, "María José", user.Profile.FirstName)
	assert.Equal(t, "+573001234567", user.Profile.Phone)
	assert.Equal(t, "UTC", user.Profile.Timezone)

	stored, err := f.users.GetProfile(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "María José", stored.Profile.FirstName)
}

func TestUserService_UpdateProfileEmpty(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "noop@example.com")

	user, updated, err := f.users.UpdateProfile(context.Background(), reg.User.ID, model.ProfileUpdateRequest{})
	require.NoError(t, err)
	assert.Empty(t, updated)
	assert.Equal(t, reg.User.ID, user.ID)
}

func TestUserService_UpdateProfileValidation(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "invalid@example.com")

	_, _, err := f.users.UpdateProfile(context.Background(), reg.User.ID, model.ProfileUpdateRequest{
		LastName: ptr("x"),
		Phone:    ptr("12"),
		Timezone: ptr("Mars/Olympus"),
	})
	require.Error(t, err)
	appErr := apperr.As(err)
	assert.Equal(t, apperr.ErrValidation, appErr.Code)
	require.Len(t, appErr.Fields, 3)
	assert.Equal(t, "last_name", appErr.Fields[0].Field)
	assert.Equal(t, "phone", appErr.Fields[1].Field)
	assert.Equal(t, "timezone", appErr.Fields[2].Field)

	stored, err := f.users.GetProfile(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "López", stored.Profile.LastName)
}

func TestUserService_GetProfileMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.GetProfile(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.ErrUserNotFound))
}

func TestUserService_DeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "delete@example.com")
	require.NoError(t, f.users.LogEvent(ctx, reg.User.ID, model.EventFeatureUsed, nil, "test"))

	err := f.users.DeleteAccount(ctx, reg.User, model.DeleteAccountRequest{ConfirmDeletion: "yes"})
	require.Error(t, err)
	appErr := apperr.As(err)
	assert.Equal(t, apperr.ErrValidation, appErr.Code)
	assert.Equal(t, "confirm-deletion-field", appErr.Focus)

	err = f.users.DeleteAccount(ctx, reg.User, model.DeleteAccountRequest{ConfirmDeletion: DeleteConfirmation, Password: "Wrong7!pass"})
	require.Error(t, err)
	assert.Equal(t, "password-field", apperr.As(err).Focus)

	require.NoError(t, f.users.DeleteAccount(ctx, reg.User, model.DeleteAccountRequest{
		ConfirmDeletion: DeleteConfirmation,
		Password:        strongPassword,
	}))

	_, err = f.users.GetProfile(ctx, reg.User.ID)
	assert.True(t, apperr.Is(err, apperr.ErrUserNotFound))
	events, err := f.store.ListEvents(ctx, reg.User.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUserService_ActivityLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "log@example.com")

	base := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		f.users.now = func() time.Time { return at }
		require.NoError(t, f.users.LogEvent(ctx, reg.User.ID, model.EventTTSUsed, map[string]any{"i": i}, "agent"))
	}

	events, err := f.users.ActivityLog(ctx, reg.User.ID, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 3, events[0].Details["i"])
	assert.Equal(t, 2, events[1].Details["i"])
	assert.Equal(t, "1.0.0-test", events[0].AppVersion)
	assert.Equal(t, "agent", events[0].UserAgent)

	for _, limit := range []int{0, -1, 101} {
		_, err := f.users.ActivityLog(ctx, reg.User.ID, limit)
		assert.True(t, apperr.Is(err, apperr.ErrValidation), fmt.Sprint(limit))
	}
}

func TestUserService_LogEventRejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	err := f.users.LogEvent(context.Background(), "u1", model.EventType("dancing"), nil, "")
	require.Error(t, err)
	assert.Equal(t, "event_type", apperr.As(err).Fields[0].Field)
}
