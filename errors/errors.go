// Package errors provides code-typed errors for the CLI and HTTP surfaces.
//
// The layout engine itself never fails; errors arise only where notes and links
// enter the system (files, databases, requests) or where output is produced.
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown note %q", id)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // reject the request
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeUnsupported   Code = "UNSUPPORTED"
	ErrCodeInternal      Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether the outermost *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from err, or "" if err carries none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps err's code to a response status. Errors without a code are
// treated as internal.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeInvalidFormat:
		return http.StatusUnsupportedMediaType
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
