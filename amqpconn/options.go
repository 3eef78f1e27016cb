package amqpconn

import amqp "github.com/rabbitmq/amqp091-go"

// ExchangeKind enumerates the AMQP exchange kinds this client can declare.
type ExchangeKind int8

const (
	// Direct routes by exact routing-key match. It is the default.
	Direct ExchangeKind = iota
	// Fanout broadcasts to every bound queue.
	Fanout
	// Topic routes by wildcard routing-key pattern.
	Topic
	// Headers routes by matching message header attributes.
	Headers
)

// String returns the AMQP wire name of the exchange kind.
func (k ExchangeKind) String() string {
	switch k {
	case Fanout:
		return amqp.ExchangeFanout
	case Topic:
		return amqp.ExchangeTopic
	case Headers:
		return amqp.ExchangeHeaders
	default:
		return amqp.ExchangeDirect
	}
}

// DeclareOptions bundles the durable/auto-delete/exclusive/no-wait flags
// shared by queue-declare and exchange-declare calls.
type DeclareOptions struct {
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
}

// QueueOptions bundles everything needed to atomically declare-and-bind a
// queue to an exchange in one Connection.Queue call: exchange kind, the
// exchange-declare and queue-declare option/field-table pairs, and the
// bind call's no-wait flag and field table.
type QueueOptions struct {
	Kind            ExchangeKind
	ExchangeOptions DeclareOptions
	ExchangeTable   amqp.Table
	QueueOptions    DeclareOptions
	QueueTable      amqp.Table
	BindNoWait      bool
	BindTable       amqp.Table
}

// ConsumeOptions bundles the flags passed to basic.consume.
type ConsumeOptions struct {
	AutoAck   bool
	Exclusive bool
	NoLocal   bool
	NoWait    bool
	Args      amqp.Table
}

// PublishOptions bundles the flags passed to basic.publish.
type PublishOptions struct {
	Mandatory bool
	Immediate bool
}

// SettleOptions bundles the flags passed to basic.ack / basic.reject /
// basic.nack. Multiple and Requeue are interpreted per-call: Ack and Nack
// read Multiple, Reject and Nack read Requeue.
type SettleOptions struct {
	Multiple bool
	Requeue  bool
}

const (
	// DefaultExchange routes directly by queue name; the AMQP spec
	// forbids declaring it, so Connection.Queue skips declare-and-bind
	// entirely when this sentinel is used.
	DefaultExchange = ""
	// EphemeralQueue asks the broker to assign a queue name.
	EphemeralQueue = ""
)
