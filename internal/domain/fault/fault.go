// Package fault classifies engine errors into a small set of categories with
// stable string codes. Callers branch on the category via errors.Is; the HTTP
// layer renders the code so clients never parse free text.
package fault

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Every error produced by the engine unwraps to exactly one.
var (
	// ErrValidation marks malformed input, including difficulty tiers
	// outside the supported range.
	ErrValidation = errors.New("validation")

	// ErrNotFound marks an unknown user, challenge, or category.
	ErrNotFound = errors.New("not_found")

	// ErrConflict marks a duplicate attempt for a (user, challenge) pair.
	ErrConflict = errors.New("conflict")

	// ErrExpired marks a challenge past its active-until deadline.
	ErrExpired = errors.New("expired")

	// ErrTransient marks storage unavailability; a retry is safe because
	// submission is idempotent at the storage layer.
	ErrTransient = errors.New("transient")

	// ErrInvariant marks a malformed rank ordering out of a recomputation.
	// Never expected; the previous ranking stays in effect.
	ErrInvariant = errors.New("invariant_violation")
)

// Error couples a category sentinel with an operation and optional cause.
type Error struct {
	kind error
	op   string
	msg  string
	err  error
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return fmt.Sprintf("%s: %s: %v", e.op, e.msg, e.err)
	case e.msg != "":
		return fmt.Sprintf("%s: %s", e.op, e.msg)
	default:
		return e.op + ": " + e.kind.Error()
	}
}

// Unwrap exposes both the category sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.err != nil {
		return []error{e.kind, e.err}
	}
	return []error{e.kind}
}

// New builds a categorized error for operation op.
func New(kind error, op, msg string) error {
	return &Error{kind: kind, op: op, msg: msg}
}

// Wrap categorizes an underlying error from operation op.
func Wrap(kind error, op string, err error) error {
	return &Error{kind: kind, op: op, err: err}
}

// Code returns the stable category code for err, or "internal" when the
// error carries no category.
func Code(err error) string {
	for _, kind := range []error{
		ErrValidation, ErrNotFound, ErrConflict,
		ErrExpired, ErrTransient, ErrInvariant,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal"
}
