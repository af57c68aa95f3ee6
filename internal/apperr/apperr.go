// Package apperr defines the coded errors returned by report endpoints.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code sent to clients.
type Code string

const (
	CodeMissingSector    Code = "MISSING_SECTOR"
	CodeInvalidSector    Code = "INVALID_SECTOR"
	CodeInvalidDateRange Code = "INVALID_DATE_RANGE"
	CodeInvalidDates     Code = "INVALID_DATES"
	CodeInvalidOperation Code = "INVALID_OPERATION"
	CodeNotFound         Code = "NOT_FOUND"
	CodeDatabase         Code = "DB_ERROR"
	CodeInternal         Code = "INTERNAL"
)

// Status maps the code to the HTTP status it is served with.
func (c Code) Status() int {
	switch c {
	case CodeMissingSector, CodeInvalidSector, CodeInvalidDateRange, CodeInvalidDates, CodeInvalidOperation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is an application error with a client-facing code and message.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Status returns the HTTP status for the error's code.
func (e *Error) Status() int {
	return e.Code.Status()
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error that keeps cause in the chain.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}
