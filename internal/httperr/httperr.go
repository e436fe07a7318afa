// Package httperr defines error values that carry an HTTP status code.
// Handlers and services return these instead of bare errors so the central
// Echo error handler can translate failures into consistent JSON bodies
// without leaking internals.
package httperr

import "net/http"

// Error is an error with an associated HTTP status. Message is what the
// client sees; it must never contain internal detail.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// New builds an Error with an explicit status.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error    { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error     { return New(http.StatusNotFound, message) }
func TooManyRequests(message string) *Error {
	return New(http.StatusTooManyRequests, message)
}
func BadGateway(message string) *Error { return New(http.StatusBadGateway, message) }
func Unavailable(message string) *Error {
	return New(http.StatusServiceUnavailable, message)
}
func Internal() *Error { return New(http.StatusInternalServerError, "Internal server error") }
