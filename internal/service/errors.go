package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAccessDenied marks a requester who is not authorized or not yet registered.
	ErrAccessDenied = errors.New("access denied")
	// ErrInterpretation marks a keyword extraction call that failed or returned
	// an unparseable result.
	ErrInterpretation = errors.New("interpretation failed")
	// ErrNoMatch marks a lookup that found no records.
	ErrNoMatch = errors.New("no matching records")
	// ErrSynthesis marks a failed answer generation call.
	ErrSynthesis = errors.New("synthesis failed")
	// ErrTransport marks a reply that could not be delivered.
	ErrTransport = errors.New("reply delivery failed")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is reports ValidationError as ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
