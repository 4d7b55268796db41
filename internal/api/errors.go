package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ambis/miniquiz/internal/validate"
)

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	// ErrUnauthorized means the token is missing, expired or revoked (401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict means the resource already exists (409), e.g. a quiz
	// session is already running or an email is already registered.
	ErrConflict = errors.New("conflict")

	// ErrNotFound means the resource does not exist (404).
	ErrNotFound = errors.New("not found")

	// ErrTransient covers network failures, timeouts and 5xx responses.
	// The same request may succeed if the user retries.
	ErrTransient = errors.New("service unavailable")

	// ErrRejected covers every other 4xx: validation and business rules.
	ErrRejected = errors.New("request rejected")
)

// Error is a failed API call.
type Error struct {
	Method    string
	Path      string
	Status    int    // 0 when no response was received
	Message   string // server-supplied message, may be empty
	RequestID string

	kind  error
	cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: ", e.Method, e.Path)
	switch {
	case e.Status == 0 && e.cause != nil:
		fmt.Fprintf(&b, "%v: %v", e.kind, e.cause)
	case e.Message != "":
		fmt.Fprintf(&b, "%d %s", e.Status, e.Message)
	default:
		fmt.Fprintf(&b, "%d %s", e.Status, http.StatusText(e.Status))
	}
	return b.String()
}

// NewError builds an *Error for an HTTP status, classified the same way as
// responses received by Client.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message, kind: kindFor(status)}
}

// Unwrap exposes the error kind and, for transport failures, the cause.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// Kind returns the sentinel this error belongs to.
func (e *Error) Kind() error {
	return e.kind
}

// kindFor maps an HTTP status to its error kind.
func kindFor(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return ErrTransient
	default:
		return ErrRejected
	}
}

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// UserMessage turns err into a sentence fit for the UI. fallback is used
// when the server gave no usable message.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var verr *validate.Error
	if errors.As(err, &verr) {
		return verr.Error()
	}

	if errors.Is(err, ErrUnauthorized) {
		return "Your session has ended. Please log in again."
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fallback
	}

	if errors.Is(err, ErrTransient) {
		switch {
		case apiErr.Status == http.StatusGatewayTimeout:
			return "The server is slow to respond. Please try again in a moment."
		case apiErr.Status == 0:
			return "Cannot reach the server. Check your connection and try again."
		case apiErr.Message != "":
			return apiErr.Message
		default:
			return "The server is having trouble. Please try again."
		}
	}

	if apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
