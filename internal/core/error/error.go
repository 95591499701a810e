package errx

import (
	"errors"
	"fmt"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
)

// Sentinel errors for the assistant's failure modes. Tool and model failures
// never surface to the caller verbatim; the orchestrator maps them to safe
// conversational answers.
var (
	// ErrUnknownTool is returned when the model requests a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrPolicyDenied is returned when a tool invocation would exceed the per-request call budget.
	ErrPolicyDenied = errors.New("tool call denied by policy")
	// ErrLLMUnavailable is returned when the model cannot be reached after retrying.
	ErrLLMUnavailable = errors.New("llm unavailable")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapTool wraps a tool handler failure so callers can distinguish it from
// policy or lookup errors while keeping the original cause in the chain.
func WrapTool(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("tool %q execution failed: %w", name, err)
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
