package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies a failure by how callers should react to it.
type Kind string

const (
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindRateLimited     Kind = "RATE_LIMITED"
	KindInternal        Kind = "INTERNAL"
)

// Error is the application error type carried across package boundaries.
type Error struct {
	Kind    Kind   // Machine-readable classification
	Message string // Client-safe message
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error with a kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Sentinels usable with errors.Is.
var (
	ErrInvalidArgument = New(KindInvalidArgument, "invalid argument")
	ErrUnauthorized    = New(KindUnauthorized, "unauthorized")
	ErrForbidden       = New(KindForbidden, "forbidden")
	ErrNotFound        = New(KindNotFound, "not found")
	ErrConflict        = New(KindConflict, "conflict")
	ErrInternal        = New(KindInternal, "internal error")
)

func InvalidArgument(message string) *Error { return New(KindInvalidArgument, message) }
func Unauthorized(message string) *Error    { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }

// Internal wraps cause as an internal failure with a client-safe message.
func Internal(message string, cause error) *Error {
	return Wrap(KindInternal, message, cause)
}

// KindOf extracts the kind from err, defaulting to KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message for err. Unclassified errors
// never leak their text.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "internal server error"
}

// HTTPStatus maps an error to the status code of the response envelope.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
