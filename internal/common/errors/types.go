// Package errors defines the typed error taxonomy shared by the stream client,
// the digest HTTP client and the phonebook.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeConnection represents connect, reset and socket errors
	ErrTypeConnection ErrorType = "connection"
	// ErrTypeProtocol represents unexpected challenges, unsupported algorithms and missing fields
	ErrTypeProtocol ErrorType = "protocol"
	// ErrTypeParse represents malformed documents
	ErrTypeParse ErrorType = "parse"
	// ErrTypeAuth represents authentication errors
	ErrTypeAuth ErrorType = "authentication"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeTimeout represents timeout errors
	ErrTypeTimeout ErrorType = "timeout"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		sort.Strings(contextParts)
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// ConnectionError creates a new connection error
func ConnectionError(msg string, cause error) *AppError {
	return &AppError{Type: ErrTypeConnection, Message: msg, Cause: cause}
}

// ProtocolError creates a new protocol error
func ProtocolError(msg string) *AppError {
	return &AppError{Type: ErrTypeProtocol, Message: msg}
}

// ParseError creates a new parse error
func ParseError(msg string, cause error) *AppError {
	return &AppError{Type: ErrTypeParse, Message: msg, Cause: cause}
}

// AuthError creates a new authentication error
func AuthError(msg string) *AppError {
	return &AppError{Type: ErrTypeAuth, Message: msg}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{Type: ErrTypeConfig, Message: msg}
}

// TimeoutError creates a new timeout error
func TimeoutError(operation string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeTimeout,
		Message: fmt.Sprintf("timeout during %s", operation),
		Cause:   cause,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{Type: ErrTypeInternal, Message: msg, Cause: cause}
}

// IsType checks if an error, or any error it wraps, is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Type == errType
}

// GetType returns the error type if err wraps an AppError, otherwise ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return ErrTypeInternal
	}
	return appErr.Type
}
