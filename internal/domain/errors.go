package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates an unknown item, chain or work item id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidIndex indicates a reorder target outside the chain bounds.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrConflict indicates a stale write: the chain was saved by another
	// operator since it was loaded.
	ErrConflict = errors.New("chain was modified concurrently")

	// ErrDataIntegrity indicates stored state that violates a chain invariant.
	ErrDataIntegrity = errors.New("data integrity violation")
)

// ValidationError reports bad caller input. The chain it was aimed at is left
// unmodified.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
