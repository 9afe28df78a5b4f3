package model

import (
	"github.com/Laisky/errors/v2"

	"github.com/Laisky/envo-blog/library/db/docstore"
)

var (
	// ErrPostNotFound the post id does not resolve
	ErrPostNotFound = errors.New("post not found")
	// ErrDuplicateEmail the email already has a subscription
	ErrDuplicateEmail = errors.New("Email already subscribed")
	// ErrValidation matches every *ValidationError
	ErrValidation = errors.New("invalid input")
	// ErrStoreUnavailable the backend failed
	ErrStoreUnavailable = docstore.ErrUnavailable
)

// ValidationError is a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports ErrValidation as a match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError, formatting the message like Errorf.
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: errors.Errorf(format, args...).Error()}
}
