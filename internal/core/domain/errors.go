package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotAuthenticated indicates an operation needs a session token but none is held
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSuperseded indicates a response arrived after a newer request was issued
	// by the same component and was discarded
	ErrSuperseded = errors.New("superseded by a newer request")

	// ErrTokenExpired indicates the session token is past its expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the session token is malformed
	ErrTokenInvalid = errors.New("token invalid")
)

// Error kinds, matched with errors.Is against a *ClientError
var (
	ErrAuthentication = errors.New("authentication error")
	ErrRegistration   = errors.New("registration error")
	ErrRetrieval      = errors.New("retrieval error")
	ErrUpload         = errors.New("upload error")
	ErrSummary        = errors.New("summary error")
	ErrSessionExpired = errors.New("session expired")
)

// Error causes (sub-kinds), matched with errors.Is against a *ClientError
var (
	ErrValidation      = errors.New("validation failed")
	ErrTransport       = errors.New("transport failed")
	ErrNoSelection     = errors.New("no document selected")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ErrorKind names the component-level error category shown at the presentation boundary
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindRegistration   ErrorKind = "registration"
	KindRetrieval      ErrorKind = "retrieval"
	KindUpload         ErrorKind = "upload"
	KindSummary        ErrorKind = "summary"
	KindSessionExpired ErrorKind = "session_expired"
)

// ErrorCause distinguishes why an operation of a given kind failed
type ErrorCause string

const (
	CauseValidation      ErrorCause = "validation"
	CauseTransport       ErrorCause = "transport"
	CauseNoSelection     ErrorCause = "no_selection"
	CauseUnauthenticated ErrorCause = "unauthenticated"
)

var kindSentinels = map[ErrorKind]error{
	KindAuthentication: ErrAuthentication,
	KindRegistration:   ErrRegistration,
	KindRetrieval:      ErrRetrieval,
	KindUpload:         ErrUpload,
	KindSummary:        ErrSummary,
	KindSessionExpired: ErrSessionExpired,
}

var causeSentinels = map[ErrorCause]error{
	CauseValidation:      ErrValidation,
	CauseTransport:       ErrTransport,
	CauseNoSelection:     ErrNoSelection,
	CauseUnauthenticated: ErrUnauthenticated,
}

// ClientError is the structured error every component returns to its caller.
// Message is always safe to display; Err keeps the underlying failure for logs.
type ClientError struct {
	Kind    ErrorKind  `json:"kind"`
	Cause   ErrorCause `json:"cause"`
	Code    string     `json:"code,omitempty"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
}

// Error implements the error interface
func (e *ClientError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying failure
func (e *ClientError) Unwrap() error {
	return e.Err
}

// Is matches the kind and cause sentinels
func (e *ClientError) Is(target error) bool {
	if s, ok := kindSentinels[e.Kind]; ok && s == target {
		return true
	}
	if s, ok := causeSentinels[e.Cause]; ok && s == target {
		return true
	}
	return false
}

// NewValidationError builds a validation-caused error with a stable code
func NewValidationError(kind ErrorKind, code, message string) *ClientError {
	return &ClientError{Kind: kind, Cause: CauseValidation, Code: code, Message: message}
}

// APIError is a non-2xx response from the document service.
// Detail holds the server-provided message and may be empty.
type APIError struct {
	StatusCode int
	Detail     string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Unauthorized reports whether the server rejected the credential
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Is maps status codes onto the generic domain sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrNotAuthenticated:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// DetailOf returns the server-provided detail carried by err, or "" when err
// did not come from a server response or the response had no detail.
func DetailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// Interpret converts a transport-layer failure into the component's error kind.
// The server's detail text wins; otherwise fallback is used.
func Interpret(kind ErrorKind, err error, fallback string) *ClientError {
	var ce *ClientError
	if errors.As(err, &ce) && ce.Kind == kind {
		return ce
	}
	msg := DetailOf(err)
	if msg == "" {
		msg = fallback
	}
	cause := CauseTransport
	if errors.Is(err, ErrNotAuthenticated) {
		cause = CauseUnauthenticated
	}
	return &ClientError{Kind: kind, Cause: cause, Message: msg, Err: err}
}

// AsClientError extracts a *ClientError from err
func AsClientError(err error) (*ClientError, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
