// Package apperr defines the stable error kinds surfaced by the domain
// services. Handlers map kinds to HTTP statuses; messages are safe to show
// to callers, wrapped causes are not.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindTransaction       Kind = "transaction_failure"
)

// Error is a kinded domain error.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, not exposed to callers
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or missing input.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports an invariant violation (cart already open, Spot Mode
// already active, delivery already assigned).
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity or one not owned by the caller.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStock names the offending product.
func InsufficientStock(productName string, requested, available int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for product %q (requested: %d, available: %d)", productName, requested, available),
	}
}

// Transaction wraps an unexpected failure inside a multi-step mutation. The
// cause is kept for logging but the caller-facing message stays generic.
func Transaction(message string, err error) *Error {
	return &Error{Kind: KindTransaction, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindTransaction for errors that carry
// no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransaction
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
