package types

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrRowNotFound   = errors.New("row not found")
	ErrInvalidPostID = errors.New("invalid post ID")
	ErrInvalidKind   = errors.New("invalid post kind")
	ErrInvalidUserID = errors.New("invalid user ID")
	ErrInvalidLabel  = errors.New("invalid tag label")
	ErrAlreadyTagged = errors.New("user already applied this tag")
	ErrTagNotFound   = errors.New("tag not found")
	ErrNotTagged     = errors.New("user has not applied this tag")
	ErrPostHasNoTags = errors.New("post has no tags")
)

// ErrorKind classifies database failures for callers.
type ErrorKind string

const (
	ErrorKindSaveFailed   ErrorKind = "SAVE_FAILED"
	ErrorKindDeleteFailed ErrorKind = "DELETE_FAILED"
	ErrorKindQueryFailed  ErrorKind = "QUERY_FAILED"
	ErrorKindInitFailed   ErrorKind = "DB_INIT_FAILED"
	ErrorKindSchemaError  ErrorKind = "DB_SCHEMA_ERROR"
)

// DatabaseError is the error returned across the cache's service boundary.
type DatabaseError struct {
	Kind       ErrorKind      `json:"kind"`
	Message    string         `json:"message"`
	StatusCode int            `json:"statusCode"`
	Context    map[string]any `json:"context,omitempty"`
	Cause      error          `json:"-"`
}

// NewDatabaseError builds a DatabaseError, deriving the status code from the cause.
func NewDatabaseError(kind ErrorKind, message string, cause error, context map[string]any) *DatabaseError {
	return &DatabaseError{
		Kind:       kind,
		Message:    message,
		StatusCode: statusCodeFor(cause),
		Context:    context,
		Cause:      cause,
	}
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// IsErrorKind reports whether err is a DatabaseError of the given kind.
func IsErrorKind(err error, kind ErrorKind) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Kind == kind
}

// IsPrecondition reports whether err is a local precondition violation rather than an I/O failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrInvalidPostID) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidLabel) ||
		errors.Is(err, ErrAlreadyTagged) ||
		errors.Is(err, ErrTagNotFound) ||
		errors.Is(err, ErrNotTagged) ||
		errors.Is(err, ErrPostHasNoTags)
}

// statusCodeFor maps a cause to an HTTP-like status code for UI mapping.
func statusCodeFor(cause error) int {
	switch {
	case errors.Is(cause, ErrAlreadyTagged):
		return http.StatusConflict
	case errors.Is(cause, ErrTagNotFound),
		errors.Is(cause, ErrNotTagged),
		errors.Is(cause, ErrPostHasNoTags),
		errors.Is(cause, ErrRowNotFound):
		return http.StatusNotFound
	case errors.Is(cause, ErrInvalidPostID),
		errors.Is(cause, ErrInvalidKind),
		errors.Is(cause, ErrInvalidUserID),
		errors.Is(cause, ErrInvalidLabel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
