package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	cause := errors.New("unexpected EOF")
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"no cause", New(ErrCodeInvalidFormat, "unsupported format: %s", "png"), "INVALID_FORMAT: unsupported format: png"},
		{"with cause", Wrap(ErrCodeInvalidHierarchy, cause, "decode %s", "budget.json"), "INVALID_HIERARCHY: decode budget.json: unexpected EOF"},
		{"empty message", New(ErrCodeInternal, ""), "INTERNAL_ERROR: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("load tree: %w", Wrap(ErrCodeUpstream, cause, "fetch %s", "https://example.org/budget.json"))

	if !errors.Is(err, cause) {
		t.Error("cause lost through wrapping")
	}
	if got := GetCode(err); got != ErrCodeUpstream {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeUpstream)
	}
	if got := UserMessage(err); got != "fetch https://example.org/budget.json" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		codes []Code
		want  bool
	}{
		{"match", New(ErrCodeNotFound, "node %q", "defense"), []Code{ErrCodeNotFound}, true},
		{"any of", New(ErrCodeFileNotFound, "x"), []Code{ErrCodeNotFound, ErrCodeFileNotFound}, true},
		{"mismatch", New(ErrCodeNotFound, "x"), []Code{ErrCodeSessionNotFound}, false},
		{"outermost wins", Wrap(ErrCodeInvalidConfig, New(ErrCodeInvalidInput, "inner"), "outer"), []Code{ErrCodeInvalidInput}, false},
		{"fmt wrapped", fmt.Errorf("ctx: %w", New(ErrCodeInvalidInput, "x")), []Code{ErrCodeInvalidInput}, true},
		{"plain", errors.New("boom"), []Code{ErrCodeInternal}, false},
		{"nil", nil, []Code{ErrCodeInternal}, false},
		{"no codes", New(ErrCodeInternal, "x"), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.codes...); got != tt.want {
				t.Errorf("Is = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(Wrap(ErrCodeSessionNotFound, errors.New("expired"), "session %s", "abc")); got != "session abc" {
		t.Errorf("coded: %q", got)
	}
	if got := UserMessage(errors.New("disk full")); got != "disk full" {
		t.Errorf("plain: %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{New(ErrCodeInvalidFormat, "x"), http.StatusBadRequest},
		{New(ErrCodeInvalidConfig, "x"), http.StatusBadRequest},
		{New(ErrCodeInvalidHierarchy, "x"), http.StatusBadRequest},
		{New(ErrCodeNotFound, "x"), http.StatusNotFound},
		{New(ErrCodeFileNotFound, "x"), http.StatusNotFound},
		{New(ErrCodeSessionNotFound, "x"), http.StatusNotFound},
		{New(ErrCodeUpstream, "x"), http.StatusBadGateway},
		{New(ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{New(ErrCodeInternal, "x"), http.StatusInternalServerError},
		{New(Code("INVALID_FOCUS"), "x"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", New(ErrCodeNotFound, "x")), http.StatusNotFound},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
}
