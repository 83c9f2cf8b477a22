package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"accessible-backend/internal/model"
)

// MemoryStorage keeps everything in process memory. Values are copied on the
// way in and out so callers never share state with the store.
type MemoryStorage struct {
	users   map[string]*model.User
	byEmail map[string]string
	events  map[string][]*model.AccessibilityEvent
	mu      sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
		events:  make(map[string][]*model.AccessibilityEvent),
	}
}

func (m *MemoryStorage) Init(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStorage) Close(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) CreateUser(ctx context.Context, user *model.User) error {
	if user == nil || user.ID == "" || user.Email == "" {
		return ErrInvalidData
	}
	email := strings.ToLower(user.Email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[email]; exists {
		return ErrDuplicateEmail
	}
	if _, exists := m.users[user.ID]; exists {
		return ErrInvalidData
	}

	m.users[user.ID] = cloneUser(user)
	m.byEmail[email] = user.ID
	return nil
}

func (m *MemoryStorage) GetUser(ctx context.Context, userID string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[userID]
	if !exists {
		return nil, ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (m *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.byEmail[strings.ToLower(email)]
	if !exists {
		return nil, ErrUserNotFound
	}
	return cloneUser(m.users[id]), nil
}

func (m *MemoryStorage) GetUserByToken(ctx context.Context, purpose model.TokenPurpose, hash string) (*model.User, error) {
	if hash == "" {
		return nil, ErrUserNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if token := user.Security.Token(purpose); token != nil && token.Hash == hash {
			return cloneUser(user), nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryStorage) UpdateUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.users[user.ID]
	if !exists {
		return ErrUserNotFound
	}

	oldEmail := strings.ToLower(current.Email)
	newEmail := strings.ToLower(user.Email)
	if oldEmail != newEmail {
		if _, taken := m.byEmail[newEmail]; taken {
			return ErrDuplicateEmail
		}
		delete(m.byEmail, oldEmail)
		m.byEmail[newEmail] = user.ID
	}

	m.users[user.ID] = cloneUser(user)
	return nil
}

func (m *MemoryStorage) DeleteUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return ErrUserNotFound
	}

	delete(m.byEmail, strings.ToLower(user.Email))
	delete(m.users, userID)
	return nil
}

func (m *MemoryStorage) AddEvent(ctx context.Context, event *model.AccessibilityEvent) error {
	if event == nil || event.UserID == "" {
		return ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e := *event
	e.Details = cloneDetails(event.Details)
	m.events[event.UserID] = append(m.events[event.UserID], &e)
	return nil
}

func (m *MemoryStorage) ListEvents(ctx context.Context, userID string, limit int) ([]*model.AccessibilityEvent, error) {
	m.mu.RLock()
	stored := m.events[userID]
	events := make([]*model.AccessibilityEvent, len(stored))
	for i, e := range stored {
		c := *e
		c.Details = cloneDetails(e.Details)
		events[i] = &c
	}
	m.mu.RUnlock()

	// Stable so events sharing a timestamp keep reverse insertion order.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (m *MemoryStorage) DeleteEvents(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.events, userID)
	return nil
}

func cloneUser(u *model.User) *model.User {
	c := *u
	if u.Security.LastLogin != nil {
		t := *u.Security.LastLogin
		c.Security.LastLogin = &t
	}
	if u.Security.AccountLockedUntil != nil {
		t := *u.Security.AccountLockedUntil
		c.Security.AccountLockedUntil = &t
	}
	if u.Security.EmailVerification != nil {
		t := *u.Security.EmailVerification
		c.Security.EmailVerification = &t
	}
	if u.Security.PasswordReset != nil {
		t := *u.Security.PasswordReset
		c.Security.PasswordReset = &t
	}
	return &c
}

func cloneDetails(d map[string]any) map[string]any {
	if d == nil {
		return map[string]any{}
	}
	c := make(map[string]any, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}
