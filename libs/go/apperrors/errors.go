// Package apperrors defines the error taxonomy shared by the delegation
// services. Every failure carries a Kind so callers can tell errors that will
// never succeed apart from ones that may succeed on a later attempt.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a delegation failure.
type Kind string

const (
	KindConfiguration     Kind = "configuration"
	KindInvalidAddress    Kind = "invalid_address"
	KindSigning           Kind = "signing"
	KindMissingFeeData    Kind = "missing_fee_data"
	KindChainIDMismatch   Kind = "chain_id_mismatch"
	KindChainRead         Kind = "chain_read"
	KindBroadcastRejected Kind = "broadcast_rejected"
	KindInclusionTimeout  Kind = "inclusion_timeout"
)

// Sentinels for errors.Is comparisons. They match any *Error of the same Kind.
var (
	ErrConfiguration     = &Error{Kind: KindConfiguration}
	ErrInvalidAddress    = &Error{Kind: KindInvalidAddress}
	ErrSigning           = &Error{Kind: KindSigning}
	ErrMissingFeeData    = &Error{Kind: KindMissingFeeData}
	ErrChainIDMismatch   = &Error{Kind: KindChainIDMismatch}
	ErrChainRead         = &Error{Kind: KindChainRead}
	ErrBroadcastRejected = &Error{Kind: KindBroadcastRejected}
	ErrInclusionTimeout  = &Error{Kind: KindInclusionTimeout}
)

// Error is a classified delegation failure. Reason holds the human or
// node-provided message and is never rewritten.
type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Err    error
}

// New creates a classified error for the given operation.
func New(kind Kind, op, reason string) *Error {
	return &Error{Kind: kind, Op: op, Reason: reason}
}

// Wrap classifies err. The reason defaults to err's message.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Reason: err.Error(), Err: err}
}

// Newf is New with a formatted reason.
func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return New(kind, op, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Reason != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Reason)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Transient reports whether the failed step may still succeed later:
// a rejected broadcast caused by node state, a read against an unavailable
// node, or a transaction that was not observed before the deadline.
func (e *Error) Transient() bool {
	switch e.Kind {
	case KindBroadcastRejected, KindChainRead, KindInclusionTimeout:
		return true
	default:
		return false
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsTransient reports whether err is a classified error that may still succeed.
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Transient()
	}
	return false
}
