package ledger

import (
	"errors"
	"fmt"
)

// The engine classifies failures into three kinds. Validation errors are
// malformed input, business errors are rule violations on well-formed input,
// and not-found errors are dangling references. Reconciliation discrepancies
// are findings, not errors, and are returned as values.

// ValidationError reports malformed input: a bad date, a wrong enum value,
// a non-positive required quantity or amount, a missing required field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf formats a new ValidationError.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// BusinessError reports a rule violation: balance mismatch, already-processed
// action, already-posted transaction, insufficient lots to close.
type BusinessError struct {
	Msg string
}

func (e *BusinessError) Error() string { return e.Msg }

// Businessf formats a new BusinessError.
func Businessf(format string, args ...any) error {
	return &BusinessError{Msg: fmt.Sprintf(format, args...)}
}

// IsBusiness reports whether err is a BusinessError.
func IsBusiness(err error) bool {
	var b *BusinessError
	return errors.As(err, &b)
}

// NotFoundError reports a reference to an entity that does not exist.
type NotFoundError struct {
	Kind string // "account", "instrument", "transaction", "corporate action", "lot"
	Key  string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.Key) }

// NotFoundf builds a NotFoundError for the given entity kind and key.
func NotFoundf(kind string, key any) error {
	return &NotFoundError{Kind: kind, Key: fmt.Sprint(key)}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}
