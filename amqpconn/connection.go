// Package amqpconn opens broker connections and performs the
// declare-and-bind primitive every Consumer and Producer builds on. A
// Connection may be cloned freely; every clone shares the same underlying
// broker session, and closing is reference-counted so the socket only
// closes once the last clone releases it.
package amqpconn

import (
	"context"
	"sync/atomic"

	"github.com/dihedron/ampq/ampqerr"
	"github.com/dihedron/ampq/telemetry"
	amqp "github.com/rabbitmq/amqp091-go"
)

// connDialer abstracts *amqp091.Connection enough to exercise Connection
// against a fake broker in tests.
type connDialer interface {
	Channel() (Channel, error)
	Close() error
}

// realDialer adapts *amqp091.Connection to connDialer: *amqp091.Channel
// satisfies the Channel interface structurally, but *amqp091.Connection's
// Channel method returns the concrete type, not the interface, so it
// cannot satisfy connDialer directly without this adapter.
type realDialer struct {
	conn *amqp.Connection
}

func (d *realDialer) Channel() (Channel, error) {
	return d.conn.Channel()
}

func (d *realDialer) Close() error {
	return d.conn.Close()
}

// Client is a stateless factory of Connections. It is cheap to construct
// and safe for concurrent use.
type Client struct{}

// NewClient returns a ready-to-use Client.
func NewClient() *Client {
	return &Client{}
}

// Connect opens a broker connection at uri (format
// "<scheme>://<user>:<password>@<host:port>/<vhost>"). It honors ctx
// cancellation even though the underlying driver's Dial call does not
// itself accept a context.
func (c *Client) Connect(ctx context.Context, uri string) (*Connection, error) {
	type result struct {
		conn *amqp.Connection
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := amqp.Dial(uri)
		done <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ampqerr.TransportErr("Client.Connect", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, ampqerr.TransportErr("Client.Connect", r.err)
		}
		return newConnection(&realDialer{conn: r.conn}), nil
	}
}

// Connection is a shared, clonable handle to an open broker session.
type Connection struct {
	dialer connDialer
	refs   *int64
	tracer *telemetry.Tracer
}

func newConnection(d connDialer) *Connection {
	refs := int64(1)
	return &Connection{dialer: d, refs: &refs, tracer: telemetry.New("amqpconn")}
}

// Clone returns a handle sharing this Connection's underlying session.
// Every clone (including the original) must call Close exactly once; the
// socket closes when the last one does.
func (c *Connection) Clone() *Connection {
	atomic.AddInt64(c.refs, 1)
	return &Connection{dialer: c.dialer, refs: c.refs, tracer: c.tracer}
}

// Close releases this handle's reference to the underlying session,
// closing the socket once every clone has released its reference.
func (c *Connection) Close() error {
	if atomic.AddInt64(c.refs, -1) > 0 {
		return nil
	}
	return ampqerr.TransportErr("Connection.Close", c.dialer.Close())
}

// Channel opens a fresh channel on this connection. Distinct Producers and
// Consumers must use distinct channels.
func (c *Connection) Channel() (Channel, error) {
	ch, err := c.dialer.Channel()
	if err != nil {
		return nil, ampqerr.TransportErr("Connection.Channel", err)
	}
	return ch, nil
}

// Queue is the canonical declare-and-bind primitive. It performs, in
// order:
//
//  1. Open a new channel.
//  2. queue_declare(queue, opts), capturing the returned handle — its name
//     is either queue or a broker-generated name when queue is the
//     ephemeral sentinel.
//  3. If exchange == DefaultExchange, return immediately without
//     declaring or binding: the default exchange already routes by queue
//     name, and declaring it is illegal.
//  4. Otherwise exchange_declare(exchange, opts.Kind, ...).
//  5. Choose the routing key: the declared queue's name when the
//     requested name was the ephemeral sentinel, else the requested name
//     verbatim.
//  6. queue_bind(declared queue name, routing key, exchange, ...).
//  7. Return the channel and the declared queue handle.
//
// Any failing step closes the channel it opened and returns an
// ampqerr.Error; no partial state is exposed to the caller.
func (c *Connection) Queue(exchange, queue string, opts QueueOptions) (Channel, amqp.Queue, error) {
	_, span := c.tracer.Start(context.Background(), "Connection.Queue", telemetry.SpanKindInternal, telemetry.OperationCreate, nil)
	defer span.End()

	ch, err := c.Channel()
	if err != nil {
		span.Error(err, "open channel failed")
		return nil, amqp.Queue{}, err
	}

	handle, err := ch.QueueDeclare(
		queue,
		opts.QueueOptions.Durable,
		opts.QueueOptions.AutoDelete,
		opts.QueueOptions.Exclusive,
		opts.QueueOptions.NoWait,
		opts.QueueTable,
	)
	if err != nil {
		ch.Close()
		err = ampqerr.TransportErr("Connection.Queue: queue_declare", err)
		span.Error(err, "queue_declare failed")
		return nil, amqp.Queue{}, err
	}

	if exchange == DefaultExchange {
		span.Success("queue declared on default exchange")
		return ch, handle, nil
	}

	if err := ch.ExchangeDeclare(
		exchange,
		opts.Kind.String(),
		opts.ExchangeOptions.Durable,
		opts.ExchangeOptions.AutoDelete,
		false,
		opts.ExchangeOptions.NoWait,
		opts.ExchangeTable,
	); err != nil {
		ch.Close()
		err = ampqerr.TransportErr("Connection.Queue: exchange_declare", err)
		span.Error(err, "exchange_declare failed")
		return nil, amqp.Queue{}, err
	}

	routingKey := queue
	if queue == EphemeralQueue {
		routingKey = handle.Name
	}

	if err := ch.QueueBind(
		handle.Name,
		routingKey,
		exchange,
		opts.BindNoWait,
		opts.BindTable,
	); err != nil {
		ch.Close()
		err = ampqerr.TransportErr("Connection.Queue: queue_bind", err)
		span.Error(err, "queue_bind failed")
		return nil, amqp.Queue{}, err
	}

	span.Success("queue declared and bound")
	return ch, handle, nil
}
