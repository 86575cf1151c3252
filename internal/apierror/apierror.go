// Package apierror provides the normalized error every failed API call is
// reported with. Callers can rely on Message being a non-empty, human-readable
// string regardless of whether the failure came from the network, from a
// malformed response, or from a well-formed error response of the server.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FallbackMessage is used when neither the server nor the transport supplied
// anything better.
const FallbackMessage = "An error occurred"

// Kind classifies a failure.
type Kind int

const (
	// KindUnknown covers server errors and anything not otherwise classified.
	KindUnknown Kind = iota
	// KindTransport is a failure below the HTTP layer: connectivity problems
	// or a response that could not be decoded.
	KindTransport
	// KindUnauthenticated is a 401 response.
	KindUnauthenticated
	// KindValidation is any other 4xx response, typically carrying a
	// server-supplied message such as "Username already exists".
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is the normalized error type.
type Error struct {
	Kind Kind

	// Status is the HTTP status code, zero for transport failures.
	Status int

	// Message is the human-readable description. Never empty.
	Message string

	// Internal holds the underlying cause for logging.
	Internal error
}

// Error implements the error interface. It returns only the message so the
// error can be shown to a user as is.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Internal
}

// --- Constructors ---

// NewTransport wraps a network-level failure.
func NewTransport(err error) *Error {
	msg := FallbackMessage
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		msg = err.Error()
	}
	return &Error{Kind: KindTransport, Message: msg, Internal: err}
}

// NewMalformed reports a response whose body could not be decoded.
func NewMalformed(err error) *Error {
	return &Error{
		Kind:     KindTransport,
		Message:  "malformed response from server",
		Internal: err,
	}
}

// NewValidation creates a client-side validation failure. It is never sent
// over the wire.
func NewValidation(message string) *Error {
	if message == "" {
		message = FallbackMessage
	}
	return &Error{Kind: KindValidation, Message: message}
}

// FromResponse normalizes a non-2xx response. The message prefers the
// server's "message" field, then the transport-level description of the
// status, then FallbackMessage.
func FromResponse(status int, body []byte) *Error {
	msg := serverMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status code %d", status)
	}
	return &Error{Kind: kindForStatus(status), Status: status, Message: msg}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthenticated
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindUnknown
	}
}

// serverMessage extracts {"message": "..."} from a JSON error body.
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

// --- Helpers ---

// KindOf returns the Kind of err, or KindUnknown for errors that are not
// normalized.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// Is reports whether err is a normalized error of the given kind.
func Is(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// Message returns the human-readable message of err. Non-normalized errors
// fall back to their Error() text, and nil or empty errors to
// FallbackMessage.
func Message(err error) string {
	if err == nil {
		return FallbackMessage
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if s := strings.TrimSpace(err.Error()); s != "" {
		return s
	}
	return FallbackMessage
}
