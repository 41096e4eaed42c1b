// Package apperr defines the error taxonomy shared by the ingestion pipeline
// and the HTTP layer. Each error carries a Kind that maps to a response status
// and a message that is safe to show to API callers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind int

const (
	// KindUnknown is any error that was not classified.
	KindUnknown Kind = iota
	// KindBadRequest covers malformed, oversized or unsupported input and media tool failures.
	KindBadRequest
	// KindUnauthorized is returned when the caller could not be authenticated.
	KindUnauthorized
	// KindForbidden is returned when the caller does not own the target record.
	KindForbidden
	// KindNotFound is returned when the target record does not exist.
	KindNotFound
	// KindStorage covers object store and metadata store failures.
	KindStorage
	// KindIO covers local staging read, write and delete failures.
	KindIO
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage_failure"
	case KindIO:
		return "io_failure"
	default:
		return "unknown"
	}
}

// Error is a classified error. Message is returned to API callers; Err holds
// the internal cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error wrapping err, which may be nil.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// BadRequest creates a KindBadRequest error.
func BadRequest(message string, err error) *Error {
	return New(KindBadRequest, message, err)
}

// Unauthorized creates a KindUnauthorized error.
func Unauthorized(message string, err error) *Error {
	return New(KindUnauthorized, message, err)
}

// Forbidden creates a KindForbidden error.
func Forbidden(message string) *Error {
	return New(KindForbidden, message, nil)
}

// NotFound creates a KindNotFound error.
func NotFound(message string, err error) *Error {
	return New(KindNotFound, message, err)
}

// Storage creates a KindStorage error.
func Storage(message string, err error) *Error {
	return New(KindStorage, message, err)
}

// IO creates a KindIO error.
func IO(message string, err error) *Error {
	return New(KindIO, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// MessageOf returns the caller-facing message of err, or fallback when err
// carries no classified message.
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
