// Package apperr defines the error taxonomy shared by services and handlers.
// Services classify failures into one of the kinds below; the HTTP layer maps
// kinds to status codes and never exposes wrapped causes to clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindInternal covers unclassified failures. Clients see a generic 500.
	KindInternal Kind = iota
	// KindValidation is malformed or missing input.
	KindValidation
	// KindAuth is an unauthenticated request or an invalid/expired credential.
	KindAuth
	// KindNotFound is a referenced entity that is absent (or not owned by the
	// caller; ownership misses are deliberately indistinguishable).
	KindNotFound
	// KindConflict is a uniqueness violation.
	KindConflict
	// KindDependency is a downstream service failure (store, email, storage).
	KindDependency
)

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

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Dependency(message string, err error) *Error {
	return &Error{Kind: KindDependency, Message: message, Err: err}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err carries no taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-safe message of err. Unclassified errors get a
// generic message so internals never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "something went wrong"
}

// StatusCode maps an error kind to its HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
