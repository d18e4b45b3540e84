package shared

import (
	"errors"
	"strings"
)

// Error codes carried by DomainError. Several codes share one ErrorKind.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidQuantity     = "INVALID_QUANTITY"
	CodeNoBillOfMaterials   = "NO_BILL_OF_MATERIALS"
	CodeNothingToReceive    = "NOTHING_TO_RECEIVE"
	CodeNothingPending      = "NOTHING_PENDING"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeInvalidState        = "INVALID_STATE"
	CodeNotFound            = "NOT_FOUND"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`

	cause error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrNotFound) holds for any not-found error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Unwrap returns the infrastructure error this domain error was mapped from, if any.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithDetails creates a domain error whose message is the prefix
// followed by every detail joined with "; ".
func NewDomainErrorWithDetails(code, prefix string, details []string) *DomainError {
	msg := prefix
	if len(details) > 0 {
		msg = strings.TrimSpace(prefix + " " + strings.Join(details, "; "))
	}
	return &DomainError{
		Code:    code,
		Message: msg,
		Details: details,
	}
}

// NewValidationError creates a validation error with the generic validation code
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewNotFoundError creates a not-found error for the named entity
func NewNotFoundError(entity string) *DomainError {
	return NewDomainError(CodeNotFound, entity+" not found.")
}

// NewInvalidTransitionError creates a state machine guard error
func NewInvalidTransitionError(message string) *DomainError {
	return NewDomainError(CodeInvalidTransition, message)
}

// NewConcurrencyError wraps a lock or serialization failure from the store.
func NewConcurrencyError(cause error) *DomainError {
	return &DomainError{
		Code:    CodeConcurrencyConflict,
		Message: "The record is locked by another operation. Please retry.",
		cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
)

// ErrorKind groups error codes into the classes callers act on.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindNotFound          ErrorKind = "not_found"
	KindConcurrency       ErrorKind = "concurrency"
	KindInternal          ErrorKind = "internal"
)

// KindOf classifies err. Errors that are not DomainErrors are internal.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if !errors.As(err, &de) {
		return KindInternal
	}
	switch de.Code {
	case CodeValidation, CodeInvalidInput, CodeInvalidQuantity, CodeNoBillOfMaterials,
		CodeNothingToReceive, CodeNothingPending, CodeAlreadyExists:
		return KindValidation
	case CodeInsufficientStock:
		return KindInsufficientStock
	case CodeInvalidTransition, CodeInvalidState:
		return KindInvalidTransition
	case CodeNotFound:
		return KindNotFound
	case CodeConcurrencyConflict:
		return KindConcurrency
	default:
		return KindInternal
	}
}

// IsRetryable reports whether the caller may retry the failed operation.
// Only lock contention is retryable; the engine itself never retries.
func IsRetryable(err error) bool {
	return KindOf(err) == KindConcurrency
}
