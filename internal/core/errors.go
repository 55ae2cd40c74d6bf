// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

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

// Predefined errors
var (
	// Lookup errors
	ErrSymbolNotFound = &Error{Code: "SYMBOL_NOT_FOUND", Message: "symbol not found"}
	ErrNoData         = &Error{Code: "NO_DATA", Message: "no data available"}

	// Input errors
	ErrInvalidInput    = &Error{Code: "INVALID_INPUT", Message: "input is not valid"}
	ErrInvalidInterval = &Error{Code: "INVALID_INTERVAL", Message: "unknown sampling interval"}

	// Collector errors
	ErrCollectorFailed = &Error{Code: "COLLECTOR_FAILED", Message: "collector failed"}

	// Pipeline errors
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for forecasting"}
	ErrPredictionFailed = &Error{Code: "PREDICTION_FAILED", Message: "prediction failed"}
	ErrMisaligned       = &Error{Code: "MISALIGNED", Message: "forecast does not align with series"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// API errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid api key"}
)

// UserMessage returns the message shown to end users for err. Lookup,
// input and insufficient-data failures each get their own wording so they
// are never confused with a generic prediction failure.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSymbolNotFound), errors.Is(err, ErrNoData):
		return "Found nothing with the inputs."
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidInterval):
		return "Input is not valid."
	case errors.Is(err, ErrInsufficientData):
		return "Didn't get enough values to predict."
	case errors.Is(err, ErrCollectorFailed):
		return "Market data is unavailable right now."
	default:
		return "Oops! Something went wrong while predicting."
	}
}
