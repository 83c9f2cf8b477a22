// Package apperr defines coded application errors and how they surface over
// HTTP.
package apperr

import (
	"errors"
	"net/http"
)

// Code classifies an application error.
type Code string

const (
	// Input errors
	ErrInvalidInput Code = "INVALID_INPUT"
	ErrValidation   Code = "VALIDATION_ERROR"
	ErrNotFound     Code = "NOT_FOUND"

	// Authentication/Authorization errors
	ErrUnauthorized Code = "UNAUTHORIZED"
	ErrForbidden    Code = "FORBIDDEN"
	ErrInvalidToken Code = "INVALID_TOKEN"

	// User-specific errors
	ErrUserNotFound       Code = "USER_NOT_FOUND"
	ErrUserAlreadyExists  Code = "USER_ALREADY_EXISTS"
	ErrInvalidCredentials Code = "INVALID_CREDENTIALS"
	ErrAccountLocked      Code = "ACCOUNT_LOCKED"

	// Rate limiting
	ErrTooManyRequests Code = "TOO_MANY_REQUESTS"

	ErrDatabase Code = "DATABASE_ERROR"
	ErrInternal Code = "INTERNAL"
)

// FieldError is one invalid input field.
type FieldError struct {
	Field      string
	Message    string
	Suggestion string
}

type AppError struct {
	Code    Code
	Message string
	// Fields lists per-field problems for validation errors.
	Fields []FieldError
	// Focus names the UI element a client should focus, if any.
	Focus  string
	Origin error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

func (appErr *AppError) Unwrap() error {
	return appErr.Origin
}

func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, origin error) *AppError {
	return &AppError{Code: code, Message: message, Origin: origin}
}

// Validation builds a VALIDATION_ERROR carrying field problems.
func Validation(message string, fields ...FieldError) *AppError {
	return &AppError{Code: ErrValidation, Message: message, Fields: fields}
}

// WithFocus sets the element to focus and returns the same error.
func (appErr *AppError) WithFocus(focus string) *AppError {
	appErr.Focus = focus
	return appErr
}

// As extracts an *AppError from err. Unknown errors become ErrInternal with
// the original kept as Origin.
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternal, "Internal server error", err)
}

// Is reports whether err is an *AppError with the given code.
func Is(err error, code Code) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// HTTPStatus converts an error code to an HTTP status code.
func HTTPStatus(code Code) int {
	switch code {
	case ErrNotFound, ErrUserNotFound:
		return http.StatusNotFound
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrValidation:
		return http.StatusUnprocessableEntity
	case ErrUnauthorized, ErrInvalidToken, ErrInvalidCredentials:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrUserAlreadyExists:
		return http.StatusConflict
	case ErrAccountLocked:
		return http.StatusLocked
	case ErrTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// IsWarning reports whether a code describes a recoverable situation the user
// can act on by waiting or confirming, rather than a hard error.
func IsWarning(code Code) bool {
	switch code {
	case ErrTooManyRequests, ErrAccountLocked, ErrForbidden:
		return true
	}
	return false
}
