package versioning

import (
	"errors"
	"fmt"
)

// Error represents a failure of a versioning operation.
//
// Service errors include:
//   - Not found: Flow, version, or metadata row does not exist
//   - Invalid operation: Request that contradicts current state, such as
//     publishing an empty draft
//   - Conflict: Duplicate version tag or a racing publisher losing the
//     version number
//   - Active version not set: Operation requires an active version and
//     the flow has none
//
// Error includes a structured code so callers branch on category, not
// on message text.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes versioning errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a flow, version, or metadata row does
	// not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInvalidOperation indicates the request contradicts the
	// current state of the flow.
	ErrCodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// ErrCodeConflict indicates a uniqueness collision, such as a
	// duplicate version tag.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeActiveVersionNotSet indicates the flow has no active
	// version where one is required.
	ErrCodeActiveVersionNotSet ErrorCode = "ACTIVE_VERSION_NOT_SET"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a NOT_FOUND error.
func NewNotFoundError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidOperationError creates an INVALID_OPERATION error.
func NewInvalidOperationError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidOperation, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError creates a CONFLICT error.
func NewConflictError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeConflict, Message: fmt.Sprintf(format, args...)}
}

// NewActiveVersionNotSetError creates an ACTIVE_VERSION_NOT_SET error.
func NewActiveVersionNotSetError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeActiveVersionNotSet, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound returns true if the error is a not-found error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsInvalidOperation returns true if the error is an invalid-operation
// error. Uses errors.As to handle wrapped errors.
func IsInvalidOperation(err error) bool {
	return hasCode(err, ErrCodeInvalidOperation)
}

// IsConflict returns true if the error is a conflict error.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

// IsActiveVersionNotSet returns true if the error is an
// active-version-not-set error. Uses errors.As to handle wrapped errors.
func IsActiveVersionNotSet(err error) bool {
	return hasCode(err, ErrCodeActiveVersionNotSet)
}

func hasCode(err error, code ErrorCode) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}
