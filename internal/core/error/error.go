package errx

import (
	"errors"
	"fmt"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// CheckpointErrorMessage describes checkpoint store failures.
	CheckpointErrorMessage = "checkpoint operation failed"
	// CheckpointNotFoundMessage signals a missing checkpoint for a thread.
	CheckpointNotFoundMessage = "checkpoint not found"
	// IntegrationErrorMessage describes outbound integration call failures.
	IntegrationErrorMessage = "integration call failed"
	// WorkflowConfigErrorMessage describes an invalid workflow construction.
	WorkflowConfigErrorMessage = "workflow configuration invalid"
)

// Status codes carried by AppError. They follow HTTP conventions so the
// surrounding service can map them directly.
const (
	StatusInternal   = 500
	StatusBadGateway = 502
	StatusNotFound   = 404
)

// AppError wraps an underlying error with a status and safe message.
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

// Is reports whether the target matches the underlying error.
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
