// internal/core/errors_test.go
package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrSymbolNotFound, ErrSymbolNotFound) {
		t.Error("same error should match")
	}
	if errors.Is(ErrSymbolNotFound, ErrInsufficientData) {
		t.Error("different codes should not match")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrCollectorFailed, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrCollectorFailed.Code {
		t.Error("code not preserved")
	}
	if !errors.Is(fmt.Errorf("loading: %w", wrapped), ErrCollectorFailed) {
		t.Error("wrapped error should still match its code")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"lookup", WrapError(ErrSymbolNotFound, errors.New("404")), "Found nothing with the inputs."},
		{"invalid interval", ErrInvalidInterval, "Input is not valid."},
		{"insufficient", fmt.Errorf("normalize: %w", ErrInsufficientData), "Didn't get enough values to predict."},
		{"prediction", ErrPredictionFailed, "Oops! Something went wrong while predicting."},
		{"unknown", errors.New("boom"), "Oops! Something went wrong while predicting."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}

	if UserMessage(ErrInsufficientData) == UserMessage(ErrPredictionFailed) {
		t.Error("insufficient data must read differently from a prediction failure")
	}
}

func TestErrUnauthorized_Wrapped(t *testing.T) {
	err := fmt.Errorf("auth: %w", WrapError(ErrUnauthorized, errors.New("header missing")))
	if !errors.Is(err, ErrUnauthorized) {
		t.Error("expected wrapped error to match ErrUnauthorized")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Error("codes must not cross-match")
	}
}
