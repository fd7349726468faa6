// Package exception defines the error taxonomy shared by every syncwave component.
//
// Every failure surfaced by the replication core is a *ReplicationError carrying a Kind.
// Callers classify errors with errors.Is against the Err* sentinels (or with KindOf)
// instead of matching messages.
package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind classifies a ReplicationError.
type Kind string

const (
	// ConfigError marks missing or invalid configuration: an unset version id, a malformed input file.
	ConfigError Kind = "ConfigError"
	// NotFoundError marks an unknown version, definition or actor id.
	NotFoundError Kind = "NotFoundError"
	// ValidationError marks a hydrated input that fails its schema check.
	ValidationError Kind = "ValidationError"
	// WorkerExecutionError marks a failure of the underlying replication.
	WorkerExecutionError Kind = "WorkerExecutionError"
	// CancelledError marks a requested and honored cancellation. It is not a failure.
	CancelledError Kind = "CancelledError"
	// InternalError marks a broken internal invariant.
	InternalError Kind = "InternalError"
)

// Sentinels matched through errors.Is; a ReplicationError of a given Kind matches its sentinel.
var (
	ErrConfig          = errors.New(string(ConfigError))
	ErrNotFound        = errors.New(string(NotFoundError))
	ErrValidation      = errors.New(string(ValidationError))
	ErrWorkerExecution = errors.New(string(WorkerExecutionError))
	ErrCancelled       = errors.New(string(CancelledError))
	ErrInternal        = errors.New(string(InternalError))
)

var sentinels = map[Kind]error{
	ConfigError:          ErrConfig,
	NotFoundError:        ErrNotFound,
	ValidationError:      ErrValidation,
	WorkerExecutionError: ErrWorkerExecution,
	CancelledError:       ErrCancelled,
	InternalError:        ErrInternal,
}

// ReplicationError is the error type returned by syncwave components.
type ReplicationError struct {
	// Module is the component that raised the error (e.g. "VersionResolver").
	Module string
	// Message is a concise description of the error.
	Message string
	// Kind classifies the error.
	Kind Kind
	// OriginalErr is the wrapped cause, if any.
	OriginalErr error
	// StackTrace is captured at construction time for debugging.
	StackTrace string
}

// New creates a ReplicationError of the given kind.
func New(kind Kind, module, message string, originalErr error) *ReplicationError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return &ReplicationError{
		Module:      module,
		Message:     message,
		Kind:        kind,
		OriginalErr: originalErr,
		StackTrace:  string(buf[:n]),
	}
}

// Newf creates a ReplicationError with a formatted message and no cause.
func Newf(kind Kind, module, format string, a ...interface{}) *ReplicationError {
	return New(kind, module, fmt.Sprintf(format, a...), nil)
}

// NewConfigError creates a ConfigError.
func NewConfigError(module, message string, err error) *ReplicationError {
	return New(ConfigError, module, message, err)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(module, message string, err error) *ReplicationError {
	return New(NotFoundError, module, message, err)
}

// NewValidationError creates a ValidationError.
func NewValidationError(module, message string, err error) *ReplicationError {
	return New(ValidationError, module, message, err)
}

// NewWorkerExecutionError creates a WorkerExecutionError.
func NewWorkerExecutionError(module, message string, err error) *ReplicationError {
	return New(WorkerExecutionError, module, message, err)
}

// NewCancelledError creates a CancelledError.
func NewCancelledError(module, message string, err error) *ReplicationError {
	return New(CancelledError, module, message, err)
}

// Error implements the error interface.
func (e *ReplicationError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Module, e.Kind, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Module, e.Kind, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *ReplicationError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target is the sentinel for this error's Kind.
func (e *ReplicationError) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the Kind of the outermost ReplicationError in err's chain.
// The second result is false when the chain holds no ReplicationError.
func KindOf(err error) (Kind, bool) {
	var re *ReplicationError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}

// IsCancelled reports whether err represents an honored cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsFatal reports whether err must not be retried by the caller at this layer.
// Cancellation is a terminal outcome rather than a failure, so it is not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrConfig) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInternal)
}

// ExtractErrorMessage returns the Message of a ReplicationError, or err.Error() otherwise.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var re *ReplicationError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
