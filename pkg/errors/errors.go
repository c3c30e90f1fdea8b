package errors

import (
	"errors"
	"fmt"
	"strings"
)

// AppError represents a gateway error with a code and optional cause
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Newf creates a new AppError with a formatted message and no cause
func Newf(code, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	for err != nil {
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// Message returns the human-readable text of err with error codes left
// out. Context added by wrapping an AppError with fmt.Errorf is kept.
func Message(err error) string {
	if appErr, ok := err.(*AppError); ok {
		if appErr.Cause == nil {
			return appErr.Message
		}
		cause := Message(appErr.Cause)
		if appErr.Message == "" {
			return cause
		}
		return appErr.Message + ": " + cause
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return strings.Replace(err.Error(), appErr.Error(), Message(appErr), 1)
	}
	return err.Error()
}

// Error codes
const (
	ErrCodeConfiguration   = "CONFIGURATION_MISSING"
	ErrCodeConfigInvalid   = "CONFIG_INVALID"
	ErrCodeUnknownTool     = "UNKNOWN_TOOL"
	ErrCodeMissingArgs     = "MISSING_ARGUMENTS"
	ErrCodeInvalidArgument = "INVALID_ARGUMENT"
	ErrCodeNoSession       = "NO_SESSION"
	ErrCodeSessionCreate   = "SESSION_CREATE_FAILED"
	ErrCodeRemoteCall      = "REMOTE_CALL_FAILED"
	ErrCodePageLimit       = "PAGE_LIMIT_EXCEEDED"
	ErrCodeToolExecution   = "TOOL_EXECUTION_FAILED"
)
