// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// WithMessage creates a new error with the same code and a user-facing message.
func WithMessage(base *Error, msg string) *Error {
	return &Error{
		Code:    base.Code,
		Message: msg,
	}
}

// Predefined errors
var (
	// Input errors, raised before any request is issued
	ErrValidation     = &Error{Code: "VALIDATION", Message: "invalid input"}
	ErrSymbolRequired = &Error{Code: "SYMBOL_REQUIRED", Message: "Enter a symbol first"}

	// Remote API errors
	ErrTransport = &Error{Code: "TRANSPORT", Message: "request failed"}
	ErrAPI       = &Error{Code: "API", Message: "api returned an error"}
	ErrDecode    = &Error{Code: "DECODE", Message: "malformed response"}

	// Per-item failure inside a settle-all batch
	ErrPartial = &Error{Code: "PARTIAL", Message: "item failed to load"}

	// View errors
	ErrBusy           = &Error{Code: "BUSY", Message: "operation already in progress"}
	ErrUnknownTab     = &Error{Code: "UNKNOWN_TAB", Message: "unknown tab"}
	ErrUnknownCommand = &Error{Code: "UNKNOWN_COMMAND", Message: "unknown command"}
	ErrUnknownField   = &Error{Code: "UNKNOWN_FIELD", Message: "unknown input field"}
	ErrJobNotFound    = &Error{Code: "JOB_NOT_FOUND", Message: "command job not found"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
