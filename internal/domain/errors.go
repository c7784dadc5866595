package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the engine and its collaborators.
var (
	ErrNotFound       = errors.New("not found")
	ErrEmptyTestName  = errors.New("recommendation has an empty test name")
	ErrNilRecord      = errors.New("health record is nil")
	ErrInvalidSubject = errors.New("subject identifier is required")
)

// PipelineError is a structured error raised inside a pipeline stage. The
// engine catches it at its boundary and converts it into the degraded set's
// PipelineFailure; it never escapes the engine's public entry point.
type PipelineError struct {
	Stage   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s stage: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s stage: %s", e.Stage, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewPipelineError wraps an error with its originating stage.
func NewPipelineError(stage, message string, cause error) *PipelineError {
	return &PipelineError{Stage: stage, Message: message, Cause: cause}
}

// Failure converts the error into the serializable failure reason.
func (e *PipelineError) Failure() *PipelineFailure {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return &PipelineFailure{Stage: e.Stage, Message: msg}
}

// FailureFromError converts any error into a failure reason, preserving the
// stage when the error is a PipelineError.
func FailureFromError(stage string, err error) *PipelineFailure {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Failure()
	}
	return &PipelineFailure{Stage: stage, Message: err.Error()}
}
