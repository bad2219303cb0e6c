package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrProfileMissing    = errors.New("profile missing")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrPersistence       = errors.New("persistence failure")
)

// Error is a classified failure. Kind is one of the sentinel errors above,
// so errors.Is(err, ErrNotFound) works through any amount of wrapping.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func NewError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func NewValidationError(message string, fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: message, Fields: fields}
}

func NotFound(message string) *Error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: ErrForbidden, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: ErrConflict, Message: message}
}

func InvalidTransition(message string) *Error {
	return &Error{Kind: ErrInvalidTransition, Message: message}
}

func Persistence(message string, cause error) *Error {
	return &Error{Kind: ErrPersistence, Message: message, Err: cause}
}

// Kind returns the sentinel classifying err, or nil for unclassified errors.
func Kind(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, kind := range []error{
		ErrUnauthenticated, ErrProfileMissing, ErrValidation, ErrNotFound,
		ErrInvalidTransition, ErrForbidden, ErrConflict, ErrPersistence,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// FieldErrors returns the per-field details of the first validation error in
// the chain.
func FieldErrors(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
