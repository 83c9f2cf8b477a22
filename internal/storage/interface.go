package storage

import (
	"context"

	"accessible-backend/internal/model"
)

type Storage interface {
	// Users
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUserByToken finds the user holding a one-time token with this hash.
	GetUserByToken(ctx context.Context, purpose model.TokenPurpose, hash string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, userID string) error

	// Accessibility activity log
	AddEvent(ctx context.Context, event *model.AccessibilityEvent) error
	// ListEvents returns at most limit events for userID, newest first.
	ListEvents(ctx context.Context, userID string, limit int) ([]*model.AccessibilityEvent, error)
	DeleteEvents(ctx context.Context, userID string) error

	// Lifecycle
	Init(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
