// Package errors defines Error, a client-visible failure carrying an
// HTTP status and headers, and StatusLine, the status string table
// pkg/httpcodec's serializer uses (spec.md §7). The parsers and the
// connection handler report failures as bare HTTP status ints; none
// of them returns an *Error.
package errors

import (
	"fmt"
	"net/http"
)

// Error is a client-visible failure: an HTTP status plus any headers
// that should ride along with it (e.g. Connection). cause, when set,
// is the underlying error for logging — never serialized to the
// client.
type Error struct {
	Status  int
	Headers http.Header
	cause   error
}

// New builds an Error for status with the given headers (may be nil).
func New(status int, headers http.Header) *Error {
	return &Error{Status: status, Headers: headers}
}

func (e *Error) Error() string {
	return fmt.Sprintf("proxy error: status = %d headers = %v cause = %v", e.Status, e.Headers, e.cause)
}

// WithCause attaches the underlying error for logging and returns e
// for chaining.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// Cause returns the underlying error, if any.
func (e *Error) Cause() error {
	return e.cause
}

// StatusLine returns the status line text per spec.md §4.3's status
// string table, falling back to 500 for unrecognized codes.
func StatusLine(status int) string {
	if line, ok := statusLines[status]; ok {
		return line
	}
	return statusLines[http.StatusInternalServerError]
}

var statusLines = map[int]string{
	http.StatusOK:                  "200 Success",
	http.StatusBadRequest:          "400 Bad Request",
	http.StatusForbidden:           "403 Forbidden",
	http.StatusNotFound:            "404 Not Found",
	http.StatusMethodNotAllowed:    "405 Method Not Allowed",
	431:                            "431 Request Header Fields Too Large",
	http.StatusInternalServerError: "500 Internal Server Error",
}
