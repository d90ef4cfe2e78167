// Package matricerr implements the engine-wide error taxonomy: every error
// that crosses a component boundary is either a *Error with one of the
// Kinds below, or gets wrapped into one before it does.
package matricerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers deciding how to react (retry,
// surface to a user, page an operator, ...).
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidInput Kind = "invalid_input"
	KindConflict     Kind = "conflict"
	KindDatabase     Kind = "database"
	KindInference    Kind = "inference"
	KindInternal     Kind = "internal"
	KindConfig       Kind = "config"
)

// Error is the engine's wrapped error type: a Kind, a message, an optional
// cause, and a field map for structured logging.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Fields  map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, matricerr.NotFound) style sentinels by
// comparing Kind whenever the target is a *Error; the target's Message and
// Cause are not compared.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds a bare *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a *Error of the given kind around an existing cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithField returns a copy of e with one additional structured field.
func (e *Error) WithField(key string, value any) *Error {
	fields := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[key] = value
	return &Error{Kind: e.Kind, Message: e.Message, Cause: e.Cause, Fields: fields}
}

// Sentinels usable with errors.Is when only the Kind matters.
var (
	NotFound     = &Error{Kind: KindNotFound}
	InvalidInput = &Error{Kind: KindInvalidInput}
	Conflict     = &Error{Kind: KindConflict}
	Database     = &Error{Kind: KindDatabase}
	Inference    = &Error{Kind: KindInference}
	Internal     = &Error{Kind: KindInternal}
	Config       = &Error{Kind: KindConfig}
)

// Is reports whether err (or any error it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// NotFoundf builds a KindNotFound error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

// InvalidInputf builds a KindInvalidInput error with a formatted message.
func InvalidInputf(format string, args ...any) *Error {
	return New(KindInvalidInput, fmt.Sprintf(format, args...))
}

// Conflictf builds a KindConflict error with a formatted message.
func Conflictf(format string, args ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...))
}

// Databasef wraps cause as a KindDatabase error with a formatted message.
func Databasef(cause error, format string, args ...any) *Error {
	return Wrap(KindDatabase, cause, fmt.Sprintf(format, args...))
}

// Inferencef wraps cause as a KindInference error with a formatted message.
func Inferencef(cause error, format string, args ...any) *Error {
	return Wrap(KindInference, cause, fmt.Sprintf(format, args...))
}

// Internalf wraps cause as a KindInternal error with a formatted message.
func Internalf(cause error, format string, args ...any) *Error {
	return Wrap(KindInternal, cause, fmt.Sprintf(format, args...))
}

// Configf builds a KindConfig error with a formatted message.
func Configf(format string, args ...any) *Error {
	return New(KindConfig, fmt.Sprintf(format, args...))
}
