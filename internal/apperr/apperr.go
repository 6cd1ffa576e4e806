// Package apperr defines the typed error kinds the core surfaces to its
// callers (HTTP handlers, bus consumers) and maps them to transport codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a category of application error.
type Kind string

const (
	NotFound          Kind = "NOT_FOUND"
	ValidationError   Kind = "VALIDATION_ERROR"
	Duplicate         Kind = "DUPLICATE"
	ConferenceStarted Kind = "CONFERENCE_STARTED"
	Overlap           Kind = "OVERLAP"
	InvalidState      Kind = "INVALID_STATE"
	Expired           Kind = "EXPIRED"
	AccessDenied      Kind = "ACCESS_DENIED"
	Internal          Kind = "INTERNAL"
)

// statusByKind maps each Kind to its HTTP status code.
var statusByKind = map[Kind]int{
	NotFound:          http.StatusNotFound,
	ValidationError:   http.StatusBadRequest,
	Duplicate:         http.StatusBadRequest,
	ConferenceStarted: http.StatusBadRequest,
	Overlap:           http.StatusBadRequest,
	InvalidState:      http.StatusBadRequest,
	Expired:           http.StatusBadRequest,
	AccessDenied:      http.StatusBadRequest,
	Internal:          http.StatusInternalServerError,
}

// Error is the application error type carried across the service boundary.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status code for err if it is (or wraps) an
// *Error; otherwise it defaults to 500.
func StatusCode(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		if code, known := statusByKind[ae.Kind]; known {
			return code
		}
	}
	return http.StatusInternalServerError
}

// KindOf extracts the Kind of err, defaulting to Internal.
func KindOf(err error) Kind {
	if ae, ok := err.(*Error); ok {
		return ae.Kind
	}
	return Internal
}

func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func NewNotFound(message string, cause error) *Error {
	return &Error{Kind: NotFound, Message: message, Cause: cause}
}

func NewValidationError(message string, cause error) *Error {
	return &Error{Kind: ValidationError, Message: message, Cause: cause}
}

func NewDuplicate(message string, cause error) *Error {
	return &Error{Kind: Duplicate, Message: message, Cause: cause}
}

func NewConferenceStarted(message string) *Error {
	return &Error{Kind: ConferenceStarted, Message: message}
}

func NewOverlap(message string) *Error {
	return &Error{Kind: Overlap, Message: message}
}

func NewInvalidState(message string) *Error {
	return &Error{Kind: InvalidState, Message: message}
}

func NewExpired(message string) *Error {
	return &Error{Kind: Expired, Message: message}
}

func NewAccessDenied(message string) *Error {
	return &Error{Kind: AccessDenied, Message: message}
}

func NewInternal(message string, cause error) *Error {
	return &Error{Kind: Internal, Message: message, Cause: cause}
}
