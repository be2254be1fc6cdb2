// Package apperr defines the error taxonomy shared by handlers and stores:
// validation and conflict errors are resolved locally, not-found means the
// referenced record is gone upstream, and remote errors carry the backend's
// message through verbatim.
package apperr

import "fmt"

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func NewNotFoundError(format string, args ...any) *NotFoundError {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// RemoteError wraps a failure from an upstream API. The message is the
// only diagnostic available, so it is never rewritten.
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string { return e.Msg }

func NewRemoteError(format string, args ...any) *RemoteError {
	return &RemoteError{Msg: fmt.Sprintf(format, args...)}
}
