package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible-backend/internal/model"
)

var _ Storage = (*MemoryStorage)(nil)
var _ Storage = (*MongoStorage)(nil)

func newUser(email string) *model.User {
	now := time.Now().UTC()
	return &model.User{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  "hash",
		CreatedAt:     now,
		UpdatedAt:     now,
		IsActive:      true,
		Profile:       model.DefaultProfile(),
		Accessibility: model.DefaultPreferences(),
	}
}

func TestMemoryStorage_UserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	require.NoError(t, s.Init(ctx))

	user := newUser("Ana@Example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	byEmail, err := s.GetUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	got.Profile.FirstName = "Ana"
	require.NoError(t, s.UpdateUser(ctx, got))
	updated, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.Profile.FirstName)

	require.NoError(t, s.DeleteUser(ctx, user.ID))
	_, err = s.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = s.GetUserByEmail(ctx, user.Email)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, user.ID), ErrUserNotFound)
}

func TestMemoryStorage_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.CreateUser(ctx, newUser("dup@example.com")))
	assert.ErrorIs(t, s.CreateUser(ctx, newUser("DUP@example.com")), ErrDuplicateEmail)

	other := newUser("other@example.com")
	require.NoError(t, s.CreateUser(ctx, other))
	other.Email = "dup@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, other), ErrDuplicateEmail)
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	user := newUser("copy@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	user.Profile.FirstName = "mutated"
	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Profile.FirstName)

	got.Accessibility.ScreenReaderUser = true
	again, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, again.Accessibility.ScreenReaderUser)
}

func TestMemoryStorage_GetUserByToken(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	user := newUser("token@example.com")
	user.Security.PasswordReset = &model.OneTimeToken{Hash: "reset-hash", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateUser(ctx, user))
	require.NoError(t, s.CreateUser(ctx, newUser("plain@example.com")))

	got, err := s.GetUserByToken(ctx, model.PurposePasswordReset, "reset-hash")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// The hash only matches the purpose it was issued for.
	_, err = s.GetUserByToken(ctx, model.PurposeEmailVerification, "reset-hash")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = s.GetUserByToken(ctx, model.PurposePasswordReset, "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	got.Security.PasswordReset.Hash = "mutated"
	again, err := s.GetUserByToken(ctx, model.PurposePasswordReset, "reset-hash")
	require.NoError(t, err)
	assert.Equal(t, "reset-hash", again.Security.PasswordReset.Hash)
}

func TestMemoryStorage_UpdateUnknownUser(t *testing.T) {
	s := NewMemoryStorage()
	assert.ErrorIs(t, s.UpdateUser(context.Background(), newUser("x@example.com")), ErrUserNotFound)
	assert.ErrorIs(t, s.CreateUser(context.Background(), &model.User{}), ErrInvalidData)
}

func TestMemoryStorage_ListEventsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	base := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AddEvent(ctx, &model.AccessibilityEvent{
			ID:        uuid.NewString(),
			UserID:    "u1",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			EventType: model.EventFeatureUsed,
			Details:   map[string]any{"n": i},
		}))
	}
	require.NoError(t, s.AddEvent(ctx, &model.AccessibilityEvent{UserID: "u2", Timestamp: base}))

	events, err := s.ListEvents(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, 4, events[0].Details["n"])
	assert.Equal(t, 3, events[1].Details["n"])
	assert.Equal(t, 2, events[2].Details["n"])

	all, err := s.ListEvents(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	require.NoError(t, s.DeleteEvents(ctx, "u1"))
	none, err := s.ListEvents(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStorage_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	user := newUser("race@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.AddEvent(ctx, &model.AccessibilityEvent{UserID: user.ID, Timestamp: time.Now()})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.GetUser(ctx, user.ID)
		}()
	}
	wg.Wait()

	events, err := s.ListEvents(ctx, user.ID, 100)
	require.NoError(t, err)
	assert.Len(t, events, 20)
}
