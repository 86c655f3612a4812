package contract

import (
	"errors"

	"github.com/alexanderramin/timeline/internal/domain"
)

type ErrorCode string

const (
	ErrCodeValidation    ErrorCode = "VALIDATION"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeInvalidIndex  ErrorCode = "INVALID_INDEX"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeDataIntegrity ErrorCode = "DATA_INTEGRITY"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// Error is the wire form of a failed use case.
type Error struct {
	Code    ErrorCode `json:"code"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// ErrorFromDomain classifies err by the domain error kinds it wraps.
func ErrorFromDomain(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	out := &Error{Code: ErrCodeInternal, Message: err.Error()}
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		out.Code = ErrCodeValidation
		out.Field = ve.Field
	case errors.Is(err, domain.ErrValidation):
		out.Code = ErrCodeValidation
	case errors.Is(err, domain.ErrNotFound):
		out.Code = ErrCodeNotFound
	case errors.Is(err, domain.ErrInvalidIndex):
		out.Code = ErrCodeInvalidIndex
	case errors.Is(err, domain.ErrConflict):
		out.Code = ErrCodeConflict
	case errors.Is(err, domain.ErrDataIntegrity):
		out.Code = ErrCodeDataIntegrity
	}
	return out
}
