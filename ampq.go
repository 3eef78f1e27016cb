// Package ampq is the prelude for the client library: it re-exports the
// pieces most callers need from one import, with no logic of its own. It
// wires no defaults beyond what amqpconn, consumer, producer, and handler
// already choose.
package ampq

import (
	"github.com/dihedron/ampq/ampqerr"
	"github.com/dihedron/ampq/amqpconn"
	"github.com/dihedron/ampq/consumer"
	"github.com/dihedron/ampq/handler"
	"github.com/dihedron/ampq/message"
	"github.com/dihedron/ampq/producer"
)

type (
	// Client opens broker connections. See amqpconn.Client.
	Client = amqpconn.Client
	// Connection is a shared, clonable handle to an open broker session.
	// See amqpconn.Connection.
	Connection = amqpconn.Connection
	// QueueOptions bundles declare-and-bind configuration. See
	// amqpconn.QueueOptions.
	QueueOptions = amqpconn.QueueOptions
	// Message is a read-only view over one inbound delivery. See
	// message.Message.
	Message = message.Message
	// ConsumerBuilder builds a Consumer. See consumer.ConsumerBuilder.
	ConsumerBuilder = consumer.ConsumerBuilder
	// Consumer drives a delivery stream. See consumer.Consumer.
	Consumer = consumer.Consumer
	// ProducerBuilder builds a Producer. See producer.ProducerBuilder.
	ProducerBuilder = producer.ProducerBuilder
	// Producer publishes and performs RPC. See producer.Producer.
	Producer = producer.Producer
	// MessagePeek inspects an inbound RPC reply. See handler.MessagePeek.
	MessagePeek = handler.MessagePeek
	// MessageProcess inspects an inbound request. See
	// handler.MessageProcess.
	MessageProcess = handler.MessageProcess
	// Directive is the three-valued settlement signal. See
	// handler.Directive.
	Directive = handler.Directive
	// Error is the uniform error type. See ampqerr.Error.
	Error = ampqerr.Error
)

const (
	Drop   = handler.Drop
	Reject = handler.Reject
	Nack   = handler.Nack

	Direct  = amqpconn.Direct
	Fanout  = amqpconn.Fanout
	Topic   = amqpconn.Topic
	Headers = amqpconn.Headers
)

// NewClient returns a ready-to-use Client.
func NewClient() *Client {
	return amqpconn.NewClient()
}

// NewConsumerBuilder starts a builder for a Consumer bound to queue via
// exchange on conn.
func NewConsumerBuilder(conn *Connection, exchange, queue string) *ConsumerBuilder {
	return consumer.NewConsumerBuilder(conn, exchange, queue)
}

// NewProducerBuilder starts a builder for a Producer publishing to queue
// via exchange on conn.
func NewProducerBuilder(conn *Connection, exchange, queue string) *ProducerBuilder {
	return producer.NewProducerBuilder(conn, exchange, queue)
}
