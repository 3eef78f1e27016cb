// Package ampqerr defines the uniform error taxonomy surfaced by every
// public ampq operation: a Transport kind wrapping failures reported by the
// AMQP driver, and an Other kind reserved for local conditions that never
// touch the wire. Handler directives (drop/reject/nack) are a separate,
// local signal and never appear here; see package handler.
package ampqerr

import (
	"errors"
	"fmt"
)

// Kind classifies the origin of an Error.
type Kind int8

const (
	// Transport wraps a failure reported by the AMQP driver: invalid
	// channel or connection state, protocol violations, I/O, or any other
	// broker-communication failure.
	Transport Kind = iota
	// Other is the extension point for local failures that never
	// originate in the transport.
	Other
)

// String returns the lower-case name of the Kind.
func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

// Error is the single error type surfaced by every public ampq operation.
// Op names the failing operation (e.g. "Connection.Queue", "Producer.RPC")
// for diagnostics; it does not participate in equality.
type Error struct {
	Kind  Kind
	Op    string
	Cause error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("ampq: %s: %s: %v", e.Op, e.Kind, e.Cause)
	}
	return fmt.Sprintf("ampq: %s: %v", e.Kind, e.Cause)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements the taxonomy's equality rule: two Errors compare equal iff
// they carry the same Kind and their causes are equal, either because
// errors.Is holds between them or, for causes with no custom comparison,
// their messages match. This mirrors the source taxonomy's field-by-field
// PartialEq and supports table-driven tests without a real broker.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	if e.Kind != other.Kind {
		return false
	}
	if e.Cause == nil || other.Cause == nil {
		return e.Cause == nil && other.Cause == nil
	}
	if errors.Is(e.Cause, other.Cause) {
		return true
	}
	return e.Cause.Error() == other.Cause.Error()
}

// TransportErr wraps err as a Transport-kind Error. Returns nil if err is
// nil, so callers can write `return TransportErr(op, err)` unconditionally.
func TransportErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Transport, Op: op, Cause: err}
}

// OtherErr wraps err as an Other-kind Error. Returns nil if err is nil.
func OtherErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Other, Op: op, Cause: err}
}
