// Package consumer builds a delivery stream bound to a queue and runs a
// loop that applies a processor and settles each delivery, or exposes the
// stream directly for manual, caller-driven control.
package consumer

import (
	"context"

	"github.com/dihedron/ampq/ampqerr"
	ampqconn "github.com/dihedron/ampq/amqpconn"
	"github.com/dihedron/ampq/handler"
	"github.com/dihedron/ampq/telemetry"
	amqp "github.com/rabbitmq/amqp091-go"
)

// connection is the subset of *amqpconn.Connection behavior a
// ConsumerBuilder needs. *amqpconn.Connection satisfies it structurally,
// and tests substitute a fake to run without a broker.
type connection interface {
	Channel() (ampqconn.Channel, error)
	Queue(exchange, queue string, opts ampqconn.QueueOptions) (ampqconn.Channel, amqp.Queue, error)
}

// DropPolicy controls how Run settles a delivery when a processor returns
// the Drop directive.
type DropPolicy int8

const (
	// DropRedeliver leaves the delivery unsettled; the broker becomes free
	// to redeliver it. This is the default: at-least-once delivery.
	DropRedeliver DropPolicy = iota
	// DropAck acks the delivery with no reply published: at-most-once.
	DropAck
)

// ConsumerBuilder accumulates the configuration needed to build a Consumer:
// connection, exchange/queue to declare-and-bind, option bundles for every
// AMQP call the Consumer will make, and the processor applied to each
// request.
type ConsumerBuilder struct {
	conn     connection
	exchange string
	queue    string

	queueOpts   ampqconn.QueueOptions
	consumeOpts ampqconn.ConsumeOptions
	publishOpts ampqconn.PublishOptions
	ackOpts     ampqconn.SettleOptions
	rejectOpts  ampqconn.SettleOptions
	nackOpts    ampqconn.SettleOptions

	tag        string
	processor  handler.MessageProcess
	dropPolicy DropPolicy
}

// NewConsumerBuilder starts a builder for a Consumer bound to queue via
// exchange. Defaults: EchoProcessor, DropRedeliver, consumer tag
// "consumer".
func NewConsumerBuilder(conn connection, exchange, queue string) *ConsumerBuilder {
	return &ConsumerBuilder{
		conn:       conn,
		exchange:   exchange,
		queue:      queue,
		tag:        "consumer",
		processor:  handler.EchoProcessor{},
		dropPolicy: DropRedeliver,
	}
}

// WithQueueOptions sets the declare/bind option bundle.
func (b *ConsumerBuilder) WithQueueOptions(opts ampqconn.QueueOptions) *ConsumerBuilder {
	b.queueOpts = opts
	return b
}

// WithConsumeOptions sets the basic.consume option bundle.
func (b *ConsumerBuilder) WithConsumeOptions(opts ampqconn.ConsumeOptions) *ConsumerBuilder {
	b.consumeOpts = opts
	return b
}

// WithPublishOptions sets the basic.publish option bundle used when
// publishing a reply.
func (b *ConsumerBuilder) WithPublishOptions(opts ampqconn.PublishOptions) *ConsumerBuilder {
	b.publishOpts = opts
	return b
}

// WithAckOptions sets the basic.ack option bundle.
func (b *ConsumerBuilder) WithAckOptions(opts ampqconn.SettleOptions) *ConsumerBuilder {
	b.ackOpts = opts
	return b
}

// WithRejectOptions sets the basic.reject option bundle.
func (b *ConsumerBuilder) WithRejectOptions(opts ampqconn.SettleOptions) *ConsumerBuilder {
	b.rejectOpts = opts
	return b
}

// WithNackOptions sets the basic.nack option bundle.
func (b *ConsumerBuilder) WithNackOptions(opts ampqconn.SettleOptions) *ConsumerBuilder {
	b.nackOpts = opts
	return b
}

// WithTag sets the basic.consume consumer tag (default "consumer").
func (b *ConsumerBuilder) WithTag(tag string) *ConsumerBuilder {
	b.tag = tag
	return b
}

// WithProcessor sets the MessageProcess applied to each request (default
// handler.EchoProcessor).
func (b *ConsumerBuilder) WithProcessor(p handler.MessageProcess) *ConsumerBuilder {
	b.processor = p
	return b
}

// WithDropPolicy sets how Run settles a Drop directive (default
// DropRedeliver).
func (b *ConsumerBuilder) WithDropPolicy(p DropPolicy) *ConsumerBuilder {
	b.dropPolicy = p
	return b
}

// Build declares and binds the queue, starts the delivery cursor, and
// returns a ready-to-drive Consumer.
func (b *ConsumerBuilder) Build(ctx context.Context) (*Consumer, error) {
	ch, q, err := b.conn.Queue(b.exchange, b.queue, b.queueOpts)
	if err != nil {
		return nil, err
	}

	deliveries, err := ch.Consume(
		q.Name,
		b.tag,
		b.consumeOpts.AutoAck,
		b.consumeOpts.Exclusive,
		b.consumeOpts.NoLocal,
		b.consumeOpts.NoWait,
		b.consumeOpts.Args,
	)
	if err != nil {
		ch.Close()
		return nil, ampqerr.TransportErr("ConsumerBuilder.Build", err)
	}

	return &Consumer{
		channel:     ch,
		exchange:    b.exchange,
		deliveries:  deliveries,
		processor:   b.processor,
		publishOpts: b.publishOpts,
		ackOpts:     b.ackOpts,
		rejectOpts:  b.rejectOpts,
		nackOpts:    b.nackOpts,
		dropPolicy:  b.dropPolicy,
		tracer:      telemetry.New("consumer"),
	}, nil
}
