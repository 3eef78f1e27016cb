// Package producer publishes to an (exchange, routing-key) and, for RPC,
// allocates an ephemeral reply queue on a private channel and awaits a
// single correlated delivery, exploiting the fact that an exclusive reply
// queue needs no client-side correlation-id table.
package producer

import (
	"context"
	"sync/atomic"

	"github.com/dihedron/ampq/ampqerr"
	ampqconn "github.com/dihedron/ampq/amqpconn"
	"github.com/dihedron/ampq/handler"
	"github.com/dihedron/ampq/telemetry"
	amqp "github.com/rabbitmq/amqp091-go"
)

// connection is the subset of *amqpconn.Connection behavior a
// ProducerBuilder needs. *amqpconn.Connection satisfies it structurally.
type connection interface {
	Channel() (ampqconn.Channel, error)
	Queue(exchange, queue string, opts ampqconn.QueueOptions) (ampqconn.Channel, amqp.Queue, error)
}

// ProducerBuilder accumulates the same configuration as ConsumerBuilder
// plus a MessagePeek applied to inbound RPC replies.
type ProducerBuilder struct {
	conn     connection
	exchange string
	queue    string

	queueOpts   ampqconn.QueueOptions
	consumeOpts ampqconn.ConsumeOptions
	publishOpts ampqconn.PublishOptions
	ackOpts     ampqconn.SettleOptions
	rejectOpts  ampqconn.SettleOptions
	nackOpts    ampqconn.SettleOptions

	tag    string
	peeker handler.MessagePeek
}

// NewProducerBuilder starts a builder for a Producer publishing to queue
// via exchange. Default MessagePeek: NoopPeeker.
func NewProducerBuilder(conn connection, exchange, queue string) *ProducerBuilder {
	return &ProducerBuilder{
		conn:     conn,
		exchange: exchange,
		queue:    queue,
		tag:      "producer",
		peeker:   handler.NoopPeeker{},
	}
}

// WithQueueOptions sets the declare/bind option bundle used for the
// ephemeral reply queue (Exclusive and AutoDelete are forced to true
// regardless of what's set here).
func (b *ProducerBuilder) WithQueueOptions(opts ampqconn.QueueOptions) *ProducerBuilder {
	b.queueOpts = opts
	return b
}

// WithConsumeOptions sets the basic.consume option bundle for the reply
// cursor.
func (b *ProducerBuilder) WithConsumeOptions(opts ampqconn.ConsumeOptions) *ProducerBuilder {
	b.consumeOpts = opts
	return b
}

// WithPublishOptions sets the basic.publish option bundle.
func (b *ProducerBuilder) WithPublishOptions(opts ampqconn.PublishOptions) *ProducerBuilder {
	b.publishOpts = opts
	return b
}

// WithAckOptions sets the basic.ack option bundle used to settle successful
// RPC replies.
func (b *ProducerBuilder) WithAckOptions(opts ampqconn.SettleOptions) *ProducerBuilder {
	b.ackOpts = opts
	return b
}

// WithRejectOptions sets the basic.reject option bundle used when the
// peeker requests Reject.
func (b *ProducerBuilder) WithRejectOptions(opts ampqconn.SettleOptions) *ProducerBuilder {
	b.rejectOpts = opts
	return b
}

// WithNackOptions sets the basic.nack option bundle used when the peeker
// requests Nack.
func (b *ProducerBuilder) WithNackOptions(opts ampqconn.SettleOptions) *ProducerBuilder {
	b.nackOpts = opts
	return b
}

// WithTag sets the reply cursor's consumer tag (default "producer").
func (b *ProducerBuilder) WithTag(tag string) *ProducerBuilder {
	b.tag = tag
	return b
}

// WithPeeker sets the MessagePeek applied to each RPC reply (default
// handler.NoopPeeker).
func (b *ProducerBuilder) WithPeeker(p handler.MessagePeek) *ProducerBuilder {
	b.peeker = p
	return b
}

// Build performs, in order:
//
//  1. Acquire the send channel tx via Connection.Channel — no declare; the
//     destination is assumed declared elsewhere.
//  2. Force Exclusive=true, AutoDelete=true on the reply queue's declare
//     options.
//  3. Connection.Queue(exchange, EphemeralQueue, opts) creates the receive
//     channel rx and declares+binds the ephemeral reply queue q.
//  4. basic_consume(q, tag, ...) on rx — the reply cursor.
//  5. Record q.Name as the reply queue: RPC publishes carry it as
//     ReplyTo, plain Publish sets no ReplyTo.
func (b *ProducerBuilder) Build(ctx context.Context) (*Producer, error) {
	tx, err := b.conn.Channel()
	if err != nil {
		return nil, err
	}

	replyOpts := b.queueOpts
	replyOpts.QueueOptions.Exclusive = true
	replyOpts.QueueOptions.AutoDelete = true

	rx, q, err := b.conn.Queue(b.exchange, ampqconn.EphemeralQueue, replyOpts)
	if err != nil {
		tx.Close()
		return nil, err
	}

	deliveries, err := rx.Consume(
		q.Name,
		b.tag,
		b.consumeOpts.AutoAck,
		b.consumeOpts.Exclusive,
		b.consumeOpts.NoLocal,
		b.consumeOpts.NoWait,
		b.consumeOpts.Args,
	)
	if err != nil {
		tx.Close()
		rx.Close()
		return nil, ampqerr.TransportErr("ProducerBuilder.Build", err)
	}

	return &Producer{
		tx:          tx,
		rx:          rx,
		exchange:    b.exchange,
		queue:       b.queue,
		replyQueue:  q.Name,
		deliveries:  deliveries,
		peeker:      b.peeker,
		publishOpts: b.publishOpts,
		ackOpts:     b.ackOpts,
		rejectOpts:  b.rejectOpts,
		nackOpts:    b.nackOpts,
		inFlight:    new(atomic.Bool),
		tracer:      telemetry.New("producer"),
	}, nil
}
