// Package schema implements the demo message record referenced by the
// core client but owned entirely by the demo harness: a length-prefixed
// binary record carrying an id, an optional message body, and a type tag.
// It stands in for a generated, zero-copy framed schema (no such generator
// appears anywhere in the example pack); the core packages never import
// it and only ever see opaque []byte payloads.
package schema

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Type tags the kind of a Message.
type Type uint8

const (
	Hello Type = iota
	Goodbye
)

// String returns the name of the Type.
func (t Type) String() string {
	switch t {
	case Hello:
		return "Hello"
	case Goodbye:
		return "Goodbye"
	default:
		return "Unknown"
	}
}

// Message is the demo's wire record: {id, msg, msg_type}. Msg is optional;
// its presence is tracked separately from the empty string so a round trip
// preserves the distinction between "no message" and "empty message".
type Message struct {
	ID      uint64
	Msg     string
	HasMsg  bool
	MsgType Type
}

// New builds a Message with a present body.
func New(id uint64, msg string, msgType Type) Message {
	return Message{ID: id, Msg: msg, HasMsg: true, MsgType: msgType}
}

// NewWithoutBody builds a Message with no body.
func NewWithoutBody(id uint64, msgType Type) Message {
	return Message{ID: id, MsgType: msgType}
}

// Encode serializes m as: u8 msg_type | u64 id (LE) | u8 has_msg |
// [u32 msg_len (LE) | msg bytes] when has_msg is set.
func Encode(m Message) []byte {
	size := 1 + 8 + 1
	var body []byte
	if m.HasMsg {
		body = []byte(m.Msg)
		size += 4 + len(body)
	}

	buf := make([]byte, size)
	buf[0] = byte(m.MsgType)
	binary.LittleEndian.PutUint64(buf[1:9], m.ID)
	offset := 9
	if m.HasMsg {
		buf[offset] = 1
		offset++
		binary.LittleEndian.PutUint32(buf[offset:offset+4], uint32(len(body)))
		offset += 4
		copy(buf[offset:], body)
	} else {
		buf[offset] = 0
	}
	return buf
}

// ErrTruncated is returned by Decode when buf's length does not match the
// length its own header declares: too short, or with trailing bytes.
var ErrTruncated = errors.New("schema: truncated record")

// Decode deserializes a Message previously produced by Encode.
func Decode(buf []byte) (Message, error) {
	if len(buf) < 10 {
		return Message{}, ErrTruncated
	}
	m := Message{
		MsgType: Type(buf[0]),
		ID:      binary.LittleEndian.Uint64(buf[1:9]),
	}
	hasMsg := buf[9]
	if hasMsg == 0 {
		if len(buf) != 10 {
			return Message{}, fmt.Errorf("schema: %w: trailing bytes after empty body", ErrTruncated)
		}
		return m, nil
	}
	if hasMsg != 1 {
		return Message{}, fmt.Errorf("schema: invalid has_msg byte %d", hasMsg)
	}
	if len(buf) < 14 {
		return Message{}, ErrTruncated
	}
	msgLen := binary.LittleEndian.Uint32(buf[10:14])
	if uint32(len(buf)-14) != msgLen {
		return Message{}, ErrTruncated
	}
	m.HasMsg = true
	m.Msg = string(buf[14:])
	return m, nil
}
