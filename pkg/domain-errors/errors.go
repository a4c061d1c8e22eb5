// Package domainerrors provides coded errors for the ledger's domain layer.
//
// Services attach a Code so transports and calling tooling can distinguish
// bad input, missing authorization, and state conflicts without string
// matching. Stores return pkg/platform/sentinel errors; services translate
// those into coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and caller handling.
type Code string

const (
	// CodeBadRequest marks validation failures: malformed input that the
	// caller can correct and retry (length mismatch, empty recipients,
	// zero-address recipient, shares not summing to the basis-point total).
	CodeBadRequest Code = "bad_request"

	// CodeUnauthorized marks requests with missing or unverifiable caller
	// identity.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks requests from an authenticated caller that lacks
	// the role or ownership the operation requires.
	CodeForbidden Code = "forbidden"

	// CodeNotFound marks lookups of entities that do not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict marks requests that collide with existing state, such as
	// a duplicate document reference under the uniqueness policy.
	CodeConflict Code = "conflict"

	// CodeInvariantViolation marks operations the ledger's state machine
	// forbids regardless of input: restricted transfers, re-use of an
	// already-transferred source.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInsufficientFunds marks fee or balance shortfalls.
	CodeInsufficientFunds Code = "insufficient_funds"

	// CodeInternal marks unexpected failures; details are not surfaced to
	// callers.
	CodeInternal Code = "internal"
)

// Error is a domain error carrying a classification code.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is / errors.As inspection.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or any error in its chain) is a domain error
// with the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability:
// dErrors.Is(err, dErrors.CodeBadRequest).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
