package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error kinds surfaced by the package. Structured
// detail types below wrap these via Unwrap so callers can test with
// errors.Is regardless of which entity failed.
var (
	// ErrNotFound: a referenced entity is missing from the input set.
	ErrNotFound = errors.New("engine: referenced entity not found")

	// ErrInvariant: inputs violate a data-model invariant.
	ErrInvariant = errors.New("engine: data-model invariant violated")

	// ErrNumericOverflow: decimal arithmetic overflow during folding.
	ErrNumericOverflow = errors.New("engine: numeric overflow")

	// ErrCancelled: cooperative cancellation was honored.
	ErrCancelled = errors.New("engine: computation cancelled")
)

// NotFoundError names the missing entity kind and id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("engine: %s %q not found", e.Kind, e.ID)
}
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NewNotFoundError(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// InvariantError names the violated invariant and the offending entity.
type InvariantError struct {
	Kind    string
	ID      string
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("engine: invariant violated on %s %q: %s", e.Kind, e.ID, e.Message)
}
func (e *InvariantError) Unwrap() error { return ErrInvariant }

func NewInvariantError(kind, id, message string) error {
	return &InvariantError{Kind: kind, ID: id, Message: message}
}

// OverflowError names the account/operation where decimal overflow was
// detected while folding occurrences into a balance.
type OverflowError struct {
	AccountID AccountID
	Date      Date
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("engine: numeric overflow folding balance for account %q at %s", e.AccountID, e.Date)
}
func (e *OverflowError) Unwrap() error { return ErrNumericOverflow }

// IsNotFound reports whether err (or any error it wraps) is ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvariant reports whether err (or any error it wraps) is ErrInvariant.
func IsInvariant(err error) bool { return errors.Is(err, ErrInvariant) }

// IsCancelled reports whether err (or any error it wraps) is ErrCancelled.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }

// IsNumericOverflow reports whether err (or any error it wraps) is ErrNumericOverflow.
func IsNumericOverflow(err error) bool { return errors.Is(err, ErrNumericOverflow) }
