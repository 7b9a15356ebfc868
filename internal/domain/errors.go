package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when the provided email/password pair is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateEmail is returned when signing up with an already registered email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateHandle is returned when the derived handle collides with an existing profile.
	ErrDuplicateHandle = errors.New("handle already taken")
	// ErrNotFound is returned when a profile cannot be resolved by id or handle.
	ErrNotFound = errors.New("profile not found")
	// ErrNotAuthenticated is returned when an operation requires an authenticated session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrCommitInFlight is returned when a draft commit is started while another is pending.
	ErrCommitInFlight = errors.New("a save is already in progress")
)

// ValidationError reports a rejected input. It carries the offending field so
// callers can surface the message inline next to it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StoreError wraps a record store failure. State on the caller's side is left
// at its last-known-good value whenever one of these is returned.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err as a StoreError for the given operation.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// IsStoreError reports whether err is (or wraps) a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsAuthError reports whether err belongs to the credential failure family.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrDuplicateHandle)
}
