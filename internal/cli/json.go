package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/rileyhilliard/zenctl/internal/errors"
)

// Machine mode flag - when true, outputs JSON and suppresses human-friendly decorations
var machineMode bool

// MachineMode returns true if machine-readable output is enabled
func MachineMode() bool {
	return machineMode
}

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound  = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid   = "CONFIG_INVALID"
	ErrCodeConsoleRejected = "CONSOLE_REJECTED"
	ErrCodeRPCFailed       = "RPC_FAILED"
	ErrCodeDaemonNotFound  = "DAEMON_NOT_FOUND"
	ErrCodeDaemonAction    = "DAEMON_ACTION_FAILED"
	ErrCodeInvalidRange    = "INVALID_RANGE"
	ErrCodeDiscovery       = "DISCOVERY_FAILED"
	ErrCodeCommandFailed   = "COMMAND_FAILED"
	ErrCodeUnknown         = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	env := JSONEnvelope{
		Success: true,
		Data:    data,
	}
	return writeJSONEnvelope(w, env)
}

// WriteJSONError writes an error response to the writer.
func WriteJSONError(w io.Writer, code, message, suggestion string, details interface{}) error {
	env := JSONEnvelope{
		Success: false,
		Error: &JSONError{
			Code:       code,
			Message:    message,
			Suggestion: suggestion,
			Details:    details,
		},
	}
	return writeJSONEnvelope(w, env)
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	env := JSONEnvelope{
		Success: false,
		Error:   ErrorToJSON(err),
	}
	return writeJSONEnvelope(w, env)
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var zErr *errors.Error
	if stderrors.As(err, &zErr) {
		out := &JSONError{
			Code:       mapErrorCode(zErr.Code, zErr.Message),
			Message:    zErr.Message,
			Suggestion: zErr.Suggestion,
		}
		if zErr.Cause != nil {
			out.Details = map[string]interface{}{"cause": zErr.Cause.Error()}
		}
		return out
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode, message string) string {
	msgLower := strings.ToLower(message)

	switch internalCode {
	case errors.ErrConfig:
		if strings.Contains(msgLower, "not found") || strings.Contains(msgLower, "no config") {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	case errors.ErrRPC:
		return ErrCodeRPCFailed
	case errors.ErrDaemon:
		switch {
		case strings.Contains(msgLower, "rejected"):
			return ErrCodeConsoleRejected
		case strings.Contains(msgLower, "no daemon"):
			return ErrCodeDaemonNotFound
		}
		return ErrCodeDaemonAction
	case errors.ErrDiscovery:
		switch {
		case strings.Contains(msgLower, "rejected"):
			return ErrCodeConsoleRejected
		case strings.Contains(msgLower, "invalid ip range"), strings.Contains(msgLower, "network or ip range"):
			return ErrCodeInvalidRange
		}
		return ErrCodeDiscovery
	case errors.ErrExec:
		return ErrCodeCommandFailed
	}

	return ErrCodeUnknown
}
