package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msgboard/msgboard/engine/message"
)

// CliError represents a CLI-specific error with enhanced context
type CliError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCliError creates a new CLI error with context
func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// WithContext adds context to the error
func (e *CliError) WithContext(key string, value any) *CliError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Categorize maps well-known failures to a CliError. Unknown errors are
// returned unchanged.
func Categorize(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return NewCliError("OPERATION_CANCELED", "Operation was canceled by user")
	case errors.Is(err, context.DeadlineExceeded):
		return NewCliError("OPERATION_TIMEOUT", "Operation timed out", err.Error())
	case errors.Is(err, message.ErrEmptyMessage), errors.Is(err, message.ErrMessageTooLong):
		return NewCliError("INVALID_MESSAGE", "Message rejected", err.Error())
	case errors.Is(err, message.ErrNotFound):
		return NewCliError("NOT_FOUND", "There are no messages to display.")
	default:
		return err
	}
}
