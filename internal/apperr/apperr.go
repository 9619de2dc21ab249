// Package apperr defines the error taxonomy surfaced by request-driven
// operations. Transient collaborator failures are absorbed inside the
// polling pipeline and never reach these types.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel failures for request-driven operations.
var (
	// ErrNotFound means the operation targeted a missing entity id.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a duplicate creation was attempted, or an
	// exclusive operation was already in progress.
	ErrConflict = errors.New("conflict")
)

// ValidationError reports malformed or empty input to an admission or
// import operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFound wraps ErrNotFound with entity context.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

// Conflict wraps ErrConflict with context.
func Conflict(detail string) error {
	return fmt.Errorf("%s: %w", detail, ErrConflict)
}
