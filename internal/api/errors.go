package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies a failed remote call.
type ErrorKind string

const (
	// KindValidation is a 4xx rejection, usually with field-level messages.
	KindValidation ErrorKind = "validation"
	// KindAuth is a 401/403; the session must be dropped.
	KindAuth ErrorKind = "auth"
	// KindNetwork covers transport failures and timeouts.
	KindNetwork ErrorKind = "network"
	// KindServer is a 5xx response.
	KindServer ErrorKind = "server"
)

// Fallback messages used when the server does not supply one.
const (
	MsgNetwork    = "Unable to reach the server. Check your connection and try again."
	MsgServer     = "The server could not complete the request. Please try again later."
	MsgAuth       = "Your session has expired. Please sign in again."
	MsgValidation = "The request was rejected. Please review the form and try again."
)

// Error is returned by every failed API call.
type Error struct {
	Kind   ErrorKind
	Status int

	// Message is the human-readable text: the server's own message when it
	// sent one, otherwise a stable fallback.
	Message string

	// Fields holds field-level validation messages keyed by attribute.
	Fields map[string][]string

	// Err is the underlying transport error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FieldSummary flattens field errors into one line, ordered by field name.
func (e *Error) FieldSummary() string {
	if len(e.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, strings.Join(e.Fields[k], " "))
	}
	return strings.Join(parts, "; ")
}

// KindOf returns the classification of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsAuthError reports whether err (or any error in its chain) is an auth
// failure.
func IsAuthError(err error) bool {
	return KindOf(err) == KindAuth
}

// Message returns the user-facing text for err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
