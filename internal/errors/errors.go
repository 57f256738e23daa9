package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig    = "CONFIG"
	ErrRPC       = "RPC"
	ErrDaemon    = "DAEMON"
	ErrDiscovery = "DISCOVERY"
	ErrExec      = "EXEC"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrRPC code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrRPC,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Rejected creates an error for a daemon router call that answered
// success=false. The server's own message, when present, becomes the cause.
func Rejected(method, serverMsg string) *Error {
	return RejectedWithCode(ErrDaemon, method, serverMsg)
}

// RejectedWithCode is Rejected for calls outside daemon control.
func RejectedWithCode(code, method, serverMsg string) *Error {
	e := &Error{
		Code:       code,
		Message:    fmt.Sprintf("The server rejected '%s'", method),
		Suggestion: "Nothing was changed. Check the server log for details.",
	}
	if serverMsg != "" {
		e.Cause = errors.New(serverMsg)
	}
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var zErr *Error
	if errors.As(err, &zErr) {
		return zErr.Code == code
	}
	return false
}

// Short returns the one-line message of a structured error, or err.Error()
// for anything else. Used for status lines where the full block doesn't fit.
func Short(err error) string {
	if err == nil {
		return ""
	}
	var zErr *Error
	if errors.As(err, &zErr) {
		if zErr.Cause != nil {
			return zErr.Message + ": " + zErr.Cause.Error()
		}
		return zErr.Message
	}
	return err.Error()
}

// ExitError carries a process exit code without printing anything extra.
// Commands return it when the outcome was already reported to the user.
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError with the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode extracts the exit code from an ExitError.
func GetExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
