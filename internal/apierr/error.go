// Package apierr defines the typed error taxonomy shared by every manager
// and handler in FederationServer. Managers and handlers never return bare
// errors across a package boundary; they return *apierr.Error so the
// dispatcher has exactly one place that maps a failure onto an HTTP status
// and a user-facing message.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies the cause of a failure.
type Kind string

const (
	InvalidArgument        Kind = "invalid_argument"
	Unauthorized            Kind = "unauthorized"
	Forbidden               Kind = "forbidden"
	NotFound                Kind = "not_found"
	MethodOrPathNotAllowed  Kind = "method_or_path_not_allowed"
	Database                Kind = "database"
	Cache                   Kind = "cache"
	Upload                  Kind = "upload"
	Unexpected              Kind = "unexpected"
)

// Error is the typed error carried end to end. Message is user-facing and
// must never include SQL text or a stack trace; Cause is kept for logging
// only and is never serialized to the wire.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func statusFor(k Kind) int {
	switch k {
	case InvalidArgument, Upload:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case MethodOrPathNotAllowed:
		return http.StatusMethodNotAllowed
	case Database, Cache, Unexpected:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// New builds an *Error for kind k with the given user-facing message.
func New(k Kind, message string) *Error {
	return &Error{Kind: k, Status: statusFor(k), Message: message}
}

// Newf is New with fmt.Sprintf-style formatting of message.
func Newf(k Kind, format string, args ...interface{}) *Error {
	return New(k, fmt.Sprintf(format, args...))
}

// Wrap attaches cause to a new *Error of kind k, keeping message user-facing.
func Wrap(k Kind, message string, cause error) *Error {
	e := New(k, message)
	e.Cause = cause
	return e
}

// WrapDatabase is shorthand for the common case of a failed store call.
func WrapDatabase(message string, cause error) *Error {
	return Wrap(Database, message, cause)
}

// As reports whether err is (or wraps) an *Error and, if so, returns it.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusAndMessage returns the HTTP status and a safe message for any error,
// falling back to 500/"internal error" for errors not produced by this
// package so nothing ever leaks raw internals to a caller.
func StatusAndMessage(err error) (int, string) {
	if e, ok := As(err); ok {
		return e.Status, e.Message
	}
	return http.StatusInternalServerError, "an internal error occurred"
}
