package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"accessible-backend/internal/auth"
	"accessible-backend/internal/config"
	"accessible-backend/internal/model"
	"accessible-backend/internal/storage"
)

const strongPassword = "Sunflower7!Rain"

// recordingMailer keeps the last token sent to each address.
type recordingMailer struct {
	mu     sync.Mutex
	verify map[string]string
	reset  map[string]string
	err    error
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{verify: map[string]string{}, reset: map[string]string{}}
}

func (m *recordingMailer) SendVerification(_ context.Context, to, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.verify[to] = token
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reset[to] = token
	return nil
}

type fixture struct {
	store  *storage.MemoryStorage
	mail   *recordingMailer
	auth   *AuthService
	users  *UserService
	access *AccessibilityService
	tokens *auth.TokenManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStorage()
	tokens := auth.NewTokenManager(config.JWTConfig{
		Secret:          strings.Repeat("k", 32),
		Issuer:          "test",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	mail := newRecordingMailer()
	authSvc := NewAuthService(store, tokens, auth.NewPasswordHasher(bcrypt.MinCost), config.SecurityConfig{
		BcryptCost:           bcrypt.MinCost,
		MaxLoginAttempts:     3,
		LockoutDuration:      15 * time.Minute,
		VerificationTokenTTL: 24 * time.Hour,
		ResetTokenTTL:        time.Hour,
	}, mail)
	users := NewUserService(store, authSvc, "1.0.0-test")
	return &fixture{
		store:  store,
		mail:   mail,
		auth:   authSvc,
		users:  users,
		access: NewAccessibilityService(users),
		tokens: tokens,
	}
}

func (f *fixture) register(t *testing.T, email string) *model.AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), model.RegisterRequest{
		Email:           email,
		Password:        strongPassword,
		ConfirmPassword: strongPassword,
		FirstName:       "ana maría",
		LastName:        "lópez",
	})
	require.NoError(t, err)
	return res
}
