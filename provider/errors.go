package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by adapters and the registry. Callers match them
// with errors.Is after unwrapping through Error.
var (
	// ErrUnknownProvider indicates no adapter is registered under the name.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnavailable indicates the upstream service cannot be reached.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrContextTooLong indicates the request exceeds the model's context
	// window despite routing's size estimate.
	ErrContextTooLong = errors.New("prompt exceeds context window")

	// ErrRateLimited indicates the upstream throttled the request.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrInvalidRequest indicates the adapter rejected the request shape.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTimeout indicates an invocation exceeded its deadline.
	ErrTimeout = errors.New("provider call timed out")
)

// Error is the failure type adapters return: it records which adapter and
// operation failed, carries the cause, and marks whether a retry against the
// same or another provider could plausibly succeed.
type Error struct {
	Provider  string
	Op        string
	Err       error
	Retryable bool
}

// NewError wraps err as an adapter failure.
func NewError(provider, op string, err error, retryable bool) *Error {
	return &Error{Provider: provider, Op: op, Err: err, Retryable: retryable}
}

func (e *Error) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure is plausibly transient. A wrapped
// Error answers for itself; bare errors are retryable only when they match a
// transient sentinel.
func IsRetryable(err error) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Retryable
	}
	switch {
	case errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrUnavailable),
		errors.Is(err, ErrTimeout):
		return true
	}
	return false
}
