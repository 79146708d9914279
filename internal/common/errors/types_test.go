package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name:     "basic error",
			appError: &AppError{Type: ErrTypeConfig, Message: "TR064_USERNAME is required"},
			want:     "config: TR064_USERNAME is required",
		},
		{
			name:     "error with code",
			appError: &AppError{Type: ErrTypeAuth, Message: "digest rejected", Code: "401"},
			want:     "authentication: digest rejected: code=401",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeConnection,
				Message: "dial failed",
				Cause:   errors.New("connection refused"),
			},
			want: "connection: dial failed: cause=connection refused",
		},
		{
			name: "error with sorted context",
			appError: &AppError{
				Type:    ErrTypeProtocol,
				Message: "unsupported digest algorithm",
				Context: map[string]interface{}{"realm": "HTTPS Access", "algorithm": "SHA-256"},
			},
			want: "protocol: unsupported digest algorithm: context={algorithm=SHA-256, realm=HTTPS Access}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appError.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_WithContextAndCode(t *testing.T) {
	appError := ProtocolError("missing field")

	if appError.WithContext("field", "NewPhonebookURL") != appError {
		t.Error("WithContext should return the same instance")
	}
	if appError.Context["field"] != "NewPhonebookURL" {
		t.Errorf("Context[field] = %v, want NewPhonebookURL", appError.Context["field"])
	}
	if appError.WithCode("P1").Code != "P1" {
		t.Errorf("Code = %v, want P1", appError.Code)
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  *AppError
		want ErrorType
	}{
		{"connection", ConnectionError("x", cause), ErrTypeConnection},
		{"protocol", ProtocolError("x"), ErrTypeProtocol},
		{"parse", ParseError("x", cause), ErrTypeParse},
		{"auth", AuthError("x"), ErrTypeAuth},
		{"config", ConfigError("x"), ErrTypeConfig},
		{"timeout", TimeoutError("connect", cause), ErrTypeTimeout},
		{"internal", InternalError("x", cause), ErrTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.want {
				t.Errorf("Type = %v, want %v", tt.err.Type, tt.want)
			}
		})
	}

	if msg := TimeoutError("connect", nil).Message; msg != "timeout during connect" {
		t.Errorf("Message = %v, want 'timeout during connect'", msg)
	}
}

func TestIsTypeAndGetType(t *testing.T) {
	wrapped := fmt.Errorf("refresh failed: %w", AuthError("bad password"))

	if !IsType(wrapped, ErrTypeAuth) {
		t.Error("IsType should see through fmt.Errorf wrapping")
	}
	if IsType(wrapped, ErrTypeParse) {
		t.Error("IsType matched the wrong type")
	}
	if IsType(nil, ErrTypeAuth) {
		t.Error("IsType(nil) should be false")
	}

	if got := GetType(wrapped); got != ErrTypeAuth {
		t.Errorf("GetType() = %v, want %v", got, ErrTypeAuth)
	}
	if got := GetType(errors.New("plain")); got != ErrTypeInternal {
		t.Errorf("GetType() = %v, want %v", got, ErrTypeInternal)
	}
	if got := GetType(nil); got != "" {
		t.Errorf("GetType(nil) = %v, want empty", got)
	}
}

func TestErrorChaining(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := ConnectionError("wrapped error", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Error("errors.Is should work with wrapped AppError")
	}

	var appErr *AppError
	if !errors.As(wrappedErr, &appErr) {
		t.Fatal("errors.As should work with AppError")
	}
	if appErr.Type != ErrTypeConnection {
		t.Errorf("Unwrapped AppError type = %v, want %v", appErr.Type, ErrTypeConnection)
	}
}
