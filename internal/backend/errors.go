package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable means the backend could not be reached at all.
	ErrUnreachable = errors.New("backend unreachable")
	// ErrUnauthenticated means the backend answered 401, or for the auth
	// check, that login state could not be verified.
	ErrUnauthenticated = errors.New("unauthenticated")
)

const (
	fallbackMessage = "Something went wrong. Please try again."
	expiredMessage  = "Your session has expired. Please log in again."
)

// ValidationError is a 4xx answer other than 401, usually a rejected form.
type ValidationError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("backend rejected request (%d): %s", e.StatusCode, e.Message)
}

// UnexpectedError covers any other non-2xx status or an unreadable body.
// Message is only ever the backend's own message field; Detail is what the
// relay noticed itself and is never shown to users.
type UnexpectedError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *UnexpectedError) Error() string {
	msg := fmt.Sprintf("unexpected backend response (%d)", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Message returns the text to show a user for a relay error: the backend's
// own message when it sent one, otherwise a generic fallback.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) && verr.Message != "" {
		return verr.Message
	}

	var uerr *UnexpectedError
	if errors.As(err, &uerr) && uerr.Message != "" {
		return uerr.Message
	}

	if errors.Is(err, ErrUnauthenticated) {
		return expiredMessage
	}

	return fallbackMessage
}

// FieldErrors returns per-field validation messages, if any.
func FieldErrors(err error) map[string][]string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
