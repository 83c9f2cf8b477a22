package storage

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrInvalidData    = errors.New("invalid data")
	ErrStorageInit    = errors.New("storage initialization failed")
)
