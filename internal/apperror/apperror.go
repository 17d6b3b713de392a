// Package apperror defines the error taxonomy shared by the domain,
// application and infrastructure layers. The HTTP layer maps kinds to status
// codes in one place.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindConflict            Kind = "conflict"
	KindUnauthorized        Kind = "unauthorized"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindInfrastructure      Kind = "infrastructure"
)

// Error carries a kind, a client-safe message and an optional cause.
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

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...any) error {
	return newError(KindValidation, nil, format, args...)
}

func NotFound(format string, args ...any) error {
	return newError(KindNotFound, nil, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newError(KindForbidden, nil, format, args...)
}

func Conflict(format string, args ...any) error {
	return newError(KindConflict, nil, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return newError(KindUnauthorized, nil, format, args...)
}

// Upstream wraps a failure of an external data source.
func Upstream(err error, format string, args ...any) error {
	return newError(KindUpstreamUnavailable, err, format, args...)
}

// Infrastructure wraps a storage or network failure.
func Infrastructure(err error, format string, args ...any) error {
	return newError(KindInfrastructure, err, format, args...)
}

// KindOf reports the kind of the first *Error in err's chain.
// Untyped errors are infrastructure errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInfrastructure
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-safe message of err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}
