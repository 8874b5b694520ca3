package errors

import (
	"errors"
	"fmt"
	"time"
)

// Common error types used across the querydeadline library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCapacityExceeded indicates that a capacity limit was exceeded
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsTemporary returns true if the error indicates a temporary condition
func IsTemporary(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrCapacityExceeded)
}

// IsTimeout returns true if the error indicates that a deadline fired,
// including a wrapped TimeoutError anywhere in the chain.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// TimeoutError reports that a guarded operation overran its deadline and a
// cancellation was dispatched. It is the only failure kind the manager
// surfaces to callers; internal bookkeeping failures never propagate.
type TimeoutError struct {
	// DeadlineID identifies the deadline that fired.
	DeadlineID string

	// Limit is the relative timeout the caller armed.
	Limit time.Duration

	// Elapsed is the wall time observed when the failure was built.
	// Always >= Limit for a fired deadline.
	Elapsed time.Duration

	// Cause is the error the guarded operation itself returned after
	// cancellation was delivered, if any.
	Cause error
}

// NewTimeoutError creates a TimeoutError for a fired deadline.
func NewTimeoutError(deadlineID string, limit, elapsed time.Duration, cause error) *TimeoutError {
	return &TimeoutError{
		DeadlineID: deadlineID,
		Limit:      limit,
		Elapsed:    elapsed,
		Cause:      cause,
	}
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("operation timed out after %v (limit %v, deadline %s)", e.Elapsed, e.Limit, e.DeadlineID)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns ErrTimeout and the operation's own error, so both
// errors.Is(err, ErrTimeout) and matching on the cause work.
func (e *TimeoutError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTimeout}
	}
	return []error{ErrTimeout, e.Cause}
}

// Timeout reports true, following the net.Error convention so callers can
// classify the failure without depending on this package's types.
func (e *TimeoutError) Timeout() bool {
	return true
}

// ValidationError provides detailed validation failure information
type ValidationError struct {
	Module string      // Component where validation failed
	Field  string      // Field that failed validation
	Value  interface{} // The invalid value
	Reason string      // Why the value is invalid
	Hint   string      // Optional hint for fixing the issue
}

// NewValidationError creates a new ValidationError
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint adds a hint to the ValidationError and returns the same instance
// for chaining
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration so errors.Is works on the sentinel.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// IsValidationError returns true if the error is or wraps a ValidationError
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// OperationError describes a failed operation with optional context
type OperationError struct {
	Module    string // Component where the operation failed
	Operation string // The operation that failed
	Cause     error  // The underlying error
	Context   string // Optional additional context
}

// NewOperationError creates a new OperationError
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext adds context to the OperationError and returns the same
// instance for chaining
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}
