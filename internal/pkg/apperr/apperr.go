// Package apperr defines the error taxonomy shared by every module.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so callers can react without parsing messages.
type Kind string

const (
	KindInternal                      Kind = "INTERNAL"
	KindNotFound                      Kind = "NOT_FOUND"
	KindConflict                      Kind = "CONFLICT"
	KindInvalidAmount                 Kind = "INVALID_AMOUNT"
	KindInsufficientInventory         Kind = "INSUFFICIENT_INVENTORY"
	KindReferentialIntegrityViolation Kind = "REFERENTIAL_INTEGRITY_VIOLATION"
	KindUnauthorized                  Kind = "UNAUTHORIZED"
	KindInvalidInput                  Kind = "INVALID_INPUT"
)

// Error is a classified error with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, apperr.ErrNotFound) works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound                      = &Error{Kind: KindNotFound}
	ErrConflict                      = &Error{Kind: KindConflict}
	ErrInvalidAmount                 = &Error{Kind: KindInvalidAmount}
	ErrInsufficientInventory         = &Error{Kind: KindInsufficientInventory}
	ErrReferentialIntegrityViolation = &Error{Kind: KindReferentialIntegrityViolation}
	ErrUnauthorized                  = &Error{Kind: KindUnauthorized}
	ErrInvalidInput                  = &Error{Kind: KindInvalidInput}
)

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

func Conflict(format string, args ...any) *Error { return newf(KindConflict, format, args...) }

func InvalidAmount(format string, args ...any) *Error {
	return newf(KindInvalidAmount, format, args...)
}

func InsufficientInventory(format string, args ...any) *Error {
	return newf(KindInsufficientInventory, format, args...)
}

func ReferentialIntegrityViolation(format string, args ...any) *Error {
	return newf(KindReferentialIntegrityViolation, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newf(KindUnauthorized, format, args...)
}

// InvalidInput rejects a malformed request field.
func InvalidInput(format string, args ...any) *Error {
	return newf(KindInvalidInput, format, args...)
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code the handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindReferentialIntegrityViolation:
		return http.StatusConflict
	case KindInvalidAmount, KindInsufficientInventory:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInvalidInput:
		return http.StatusBadRequest
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
