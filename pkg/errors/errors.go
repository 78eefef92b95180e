// Package errors provides the coded error type shared by the budgetmap
// pipeline, CLI and HTTP server.
//
// Errors only occur at I/O boundaries: decoding input, loading configuration,
// fetching remote sources, talking to a cache backend and serving HTTP. The
// treemap core recovers locally from malformed hierarchies, degenerate layouts
// and navigation misuse, so none of those paths produce an *Error.
//
// A [Code] is stable and machine-readable. The server returns it verbatim in
// error bodies and derives the response status from it with [Code.Status]:
//
//	err := errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", f)
//	errors.Is(err, errors.ErrCodeInvalidFormat)  // true
//	errors.HTTPStatus(err)                       // 400
//
//	err = errors.Wrap(errors.ErrCodeInvalidHierarchy, cause, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidHierarchy Code = "INVALID_HIERARCHY"

	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// ErrCodeUpstream marks a remote source that failed or answered with
	// an unexpected status.
	ErrCodeUpstream Code = "UPSTREAM_ERROR"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Status returns the HTTP status a response carrying c should use.
// Codes are grouped by prefix and suffix, so new INVALID_* or *_NOT_FOUND
// codes map without touching this method.
func (c Code) Status() int {
	switch {
	case c == "":
		return http.StatusInternalServerError
	case strings.HasPrefix(string(c), "INVALID_"):
		return http.StatusBadRequest
	case c == ErrCodeNotFound, strings.HasSuffix(string(c), "_NOT_FOUND"):
		return http.StatusNotFound
	case c == ErrCodeUpstream:
		return http.StatusBadGateway
	case c == ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// Error is an error with a code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error with a formatted message and cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has one of codes.
func Is(err error, codes ...Code) bool {
	got := GetCode(err)
	if got == "" {
		return false
	}
	for _, c := range codes {
		if got == c {
			return true
		}
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without code prefix or cause for coded
// errors and err.Error() otherwise.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps err to a response status; uncoded errors are 500.
func HTTPStatus(err error) int {
	return GetCode(err).Status()
}
