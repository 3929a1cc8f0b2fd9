package services

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict: a check-in while the user already has an open visit, or a
	// duplicate natural key.
	ErrConflict = errors.New("conflict")
	// ErrNotFound: the referenced visit, user, client or setting does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: a transition attempted outside its source state.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation: malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized: login with unknown user or wrong password.
	ErrUnauthorized = errors.New("invalid credentials")
)

// ValidationError names the offending field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
