package board

import (
	"errors"
	"fmt"
)

// Error represents a board library error with categorization.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes for board operations.
const (
	// ErrCodeNoData indicates the requested row does not exist.
	ErrCodeNoData = "NO_DATA"

	// ErrCodeValidation indicates the input was rejected before any write.
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeConstraint indicates the store refused a write because a
	// referenced row is missing.
	ErrCodeConstraint = "CONSTRAINT_VIOLATION"

	// ErrCodeConflict indicates the row already exists.
	ErrCodeConflict = "CONFLICT"

	// ErrCodeConfiguration indicates invalid configuration.
	ErrCodeConfiguration = "CONFIGURATION_ERROR"

	// ErrCodeDatabase indicates database operation failed.
	ErrCodeDatabase = "DATABASE_ERROR"

	// ErrCodeDelivery indicates an event could not be handed to an observer.
	ErrCodeDelivery = "DELIVERY_ERROR"

	// ErrCodeUnauthorized indicates the caller could not be identified.
	ErrCodeUnauthorized = "UNAUTHORIZED"

	// ErrCodeForbidden indicates the caller lacks the required role.
	ErrCodeForbidden = "FORBIDDEN"
)

// Common errors.
var (
	// ErrNoData is returned when a query returns no results.
	ErrNoData = &Error{
		Code:    ErrCodeNoData,
		Message: "no data found",
	}

	// ErrHubClosed is returned when an observer is added to a closed hub.
	ErrHubClosed = &Error{
		Code:    ErrCodeDelivery,
		Message: "notification hub is closed",
	}
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error wrapping an underlying error.
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// ErrorCode returns the code of the first *Error in err's chain, or "".
func ErrorCode(err error) string {
	var boardErr *Error
	if errors.As(err, &boardErr) {
		return boardErr.Code
	}
	return ""
}

// IsNoData checks if an error is ErrNoData.
func IsNoData(err error) bool {
	return ErrorCode(err) == ErrCodeNoData || errors.Is(err, ErrNoData)
}

// IsValidation checks if an error was raised by input validation.
func IsValidation(err error) bool {
	return ErrorCode(err) == ErrCodeValidation
}

// IsConstraintViolation checks if the store rejected a dangling reference.
func IsConstraintViolation(err error) bool {
	return ErrorCode(err) == ErrCodeConstraint
}

// IsConflict checks if the store rejected a duplicate row.
func IsConflict(err error) bool {
	return ErrorCode(err) == ErrCodeConflict
}
