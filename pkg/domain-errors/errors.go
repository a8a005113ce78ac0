// Package domainerrors provides coded errors shared across modules.
//
// Services return these so transport layers can translate them into wire
// responses without inspecting error strings. Infrastructure facts (not
// found, expired, unavailable) live in pkg/platform/sentinel; this package
// is for validation failures and classified processing failures.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the class of a domain error.
type Code string

const (
	CodeInternal     Code = "internal_error"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeUnavailable  Code = "unavailable"
	CodeForbidden    Code = "forbidden"
)

// Error is a coded domain error. Message is safe to show to API clients for
// non-internal codes; internal errors keep their detail server-side.
type Error struct {
	Code    Code
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates err with a code and message while keeping the chain intact.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, wrapped: err}
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal
// so unclassified failures are never exposed as client errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the client-safe message from an error chain. Internal
// errors yield an empty message.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Code != CodeInternal {
		return de.Message
	}
	return ""
}
