// Package message provides a thin, read-only view over one inbound AMQP
// delivery. It carries no behavior of its own: payload bytes, the
// delivery tag used for settlement, and the properties a Consumer or
// Producer needs to route a reply.
package message

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message wraps one amqp091.Delivery. It is immutable after creation and
// is consumed, by its delivery tag, exactly once at settlement time.
type Message struct {
	delivery amqp.Delivery
}

// New wraps an inbound delivery.
func New(d amqp.Delivery) *Message {
	return &Message{delivery: d}
}

// Payload returns the message body.
func (m *Message) Payload() []byte {
	return m.delivery.Body
}

// DeliveryTag returns the per-channel delivery tag used for ack/reject/nack.
func (m *Message) DeliveryTag() uint64 {
	return m.delivery.DeliveryTag
}

// ReplyTo returns the reply-to routing key, empty when the sender expects
// no reply.
func (m *Message) ReplyTo() string {
	return m.delivery.ReplyTo
}

// CorrelationID returns the AMQP correlation-id property.
func (m *Message) CorrelationID() string {
	return m.delivery.CorrelationId
}

// MessageID returns the AMQP message-id property.
func (m *Message) MessageID() string {
	return m.delivery.MessageId
}

// ContentType returns the AMQP content-type property.
func (m *Message) ContentType() string {
	return m.delivery.ContentType
}

// Headers returns the AMQP header table, or nil when absent.
func (m *Message) Headers() amqp.Table {
	return m.delivery.Headers
}

// Delivery exposes the underlying amqp091.Delivery for callers needing
// lower-level access the accessors above don't cover.
func (m *Message) Delivery() amqp.Delivery {
	return m.delivery
}
