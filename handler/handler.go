// Package handler defines the two pluggable capability sets a caller
// supplies to a Consumer or Producer — MessageProcess for inbound requests,
// MessagePeek for inbound RPC replies — plus the three-valued settlement
// directive they can signal instead of a normal response.
package handler

import (
	"errors"

	"github.com/dihedron/ampq/message"
)

// Directive is the local, three-valued signal a handler uses to tell the
// driving Consumer or Producer how to settle the delivery that produced it.
// Directives never propagate as ordinary errors to the caller of Run, RPC,
// or Publish; they only influence settlement.
type Directive int8

const (
	// Drop settles nothing (leaves the delivery unsettled) by default. A
	// Consumer configured with DropAck acks it with no reply instead; a
	// Producer always leaves a dropped reply unsettled.
	Drop Directive = iota
	// Reject settles the delivery with basic.reject.
	Reject
	// Nack settles the delivery with basic.nack.
	Nack
)

// String returns the lower-case name of the Directive.
func (d Directive) String() string {
	switch d {
	case Drop:
		return "drop"
	case Reject:
		return "reject"
	case Nack:
		return "nack"
	default:
		return "unknown"
	}
}

// DirectiveError is returned by a MessagePeek or MessageProcess
// implementation to request Drop, Reject, or Nack settlement instead of a
// normal reply. It is not a transport failure and is never wrapped in
// ampqerr.Error.
type DirectiveError struct {
	Directive Directive
}

func (e *DirectiveError) Error() string {
	return "handler: " + e.Directive.String()
}

// AsDirective reports whether err (or something it wraps) is a
// *DirectiveError, returning the carried Directive.
func AsDirective(err error) (Directive, bool) {
	var de *DirectiveError
	if !errors.As(err, &de) {
		return 0, false
	}
	return de.Directive, true
}

// MessagePeek inspects an inbound RPC reply. A nil error accepts it; a
// *DirectiveError requests Drop, Reject, or Nack settlement of that reply
// instead. Used by Producer on the reply side of rpc().
type MessagePeek interface {
	Peek(msg *message.Message) error
}

// MessageProcess inspects an inbound request and returns the response
// payload to publish back to the caller. A *DirectiveError requests Drop,
// Reject, or Nack settlement instead of a reply. Used by Consumer on the
// request side.
type MessageProcess interface {
	Process(msg *message.Message) ([]byte, error)
}

// EchoProcessor returns the request payload unchanged. It is the default
// MessageProcess used by Consumer.
type EchoProcessor struct{}

// Process implements MessageProcess.
func (EchoProcessor) Process(msg *message.Message) ([]byte, error) {
	return msg.Payload(), nil
}

// NoopPeeker accepts every reply without inspecting it. It is the default
// MessagePeek used by Producer.
type NoopPeeker struct{}

// Peek implements MessagePeek.
func (NoopPeeker) Peek(msg *message.Message) error {
	return nil
}

// RejectPeeker rejects every reply it sees. Provided as a usage example.
type RejectPeeker struct{}

// Peek implements MessagePeek.
func (RejectPeeker) Peek(msg *message.Message) error {
	return &DirectiveError{Directive: Reject}
}
