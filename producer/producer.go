package producer

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/dihedron/ampq/ampqerr"
	ampqconn "github.com/dihedron/ampq/amqpconn"
	"github.com/dihedron/ampq/handler"
	"github.com/dihedron/ampq/message"
	"github.com/dihedron/ampq/telemetry"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Producer owns two channels — a send channel for outbound publishes and a
// receive channel for RPC replies — and one ephemeral, exclusive,
// auto-delete reply queue declared on the receive channel. A single
// instance serializes its RPCs: one outstanding request at a time. Callers
// needing parallelism build more Producer instances from the same builder,
// each with its own reply queue.
type Producer struct {
	tx ampqconn.Channel
	rx ampqconn.Channel

	exchange   string
	queue      string
	replyQueue string

	deliveries <-chan amqp.Delivery
	peeker     handler.MessagePeek

	publishOpts ampqconn.PublishOptions
	ackOpts     ampqconn.SettleOptions
	rejectOpts  ampqconn.SettleOptions
	nackOpts    ampqconn.SettleOptions

	inFlight *atomic.Bool

	tracer *telemetry.Tracer
}

// ReplyQueue returns the broker-assigned name of this Producer's ephemeral
// reply queue.
func (p *Producer) ReplyQueue() string {
	return p.replyQueue
}

// Publish fire-and-forgets payload to the configured (exchange, queue).
// Success means the broker accepted the frame; it has no effect on the
// reply channel.
func (p *Producer) Publish(ctx context.Context, payload []byte) error {
	ctx, span := p.tracer.Start(ctx, "Producer.Publish", telemetry.SpanKindProducer, telemetry.OperationSend, nil)
	defer span.End()

	pub := amqp.Publishing{Body: payload}
	if err := p.tx.PublishWithContext(
		ctx, p.exchange, p.queue,
		p.publishOpts.Mandatory, p.publishOpts.Immediate, pub,
	); err != nil {
		err = ampqerr.TransportErr("Producer.Publish", err)
		span.Error(err, "publish failed")
		return err
	}
	span.Success("published")
	return nil
}

// RPC publishes payload with reply_to set to this Producer's ephemeral
// reply queue, then awaits exactly one correlated delivery. The reply is
// unambiguous because the queue is exclusive to this Producer, every RPC
// publish carries it as reply_to, and only one RPC may be in flight on
// this instance at a time.
//
// On a successful peek, the reply is acked and its payload returned. A
// peeker directive of Reject or Nack settles the reply accordingly and
// returns an empty slice with no error; Drop leaves the reply unsettled
// and also returns an empty slice with no error. A transport error from
// the publish closes the reply channel (so no goroutine can block forever
// awaiting it) and is propagated; the Producer must be rebuilt afterward.
func (p *Producer) RPC(ctx context.Context, payload []byte) ([]byte, error) {
	ctx, span := p.tracer.Start(ctx, "Producer.RPC", telemetry.SpanKindProducer, telemetry.OperationSend, nil)
	defer span.End()

	if !p.inFlight.CompareAndSwap(false, true) {
		err := ampqerr.OtherErr("Producer.RPC", errors.New("rpc already in flight on this producer"))
		span.Error(err, "rpc already in flight")
		return nil, err
	}
	defer p.inFlight.Store(false)

	pub := amqp.Publishing{Body: payload, ReplyTo: p.replyQueue}
	if err := p.tx.PublishWithContext(
		ctx, p.exchange, p.queue,
		p.publishOpts.Mandatory, p.publishOpts.Immediate, pub,
	); err != nil {
		p.rx.Close()
		err = ampqerr.TransportErr("Producer.RPC", err)
		span.Error(err, "publish failed, reply channel closed")
		return nil, err
	}

	select {
	case <-ctx.Done():
		span.Error(ctx.Err(), "rpc cancelled")
		return nil, ctx.Err()
	case d, ok := <-p.deliveries:
		if !ok {
			span.Success("reply channel closed")
			return []byte{}, nil
		}
		resp, err := p.settle(message.New(d))
		if err != nil {
			span.Error(err, "settlement failed")
			return resp, err
		}
		span.Success("rpc completed")
		return resp, nil
	}
}

func (p *Producer) settle(msg *message.Message) ([]byte, error) {
	if err := p.peeker.Peek(msg); err != nil {
		directive, ok := handler.AsDirective(err)
		if !ok {
			return nil, err
		}
		switch directive {
		case handler.Reject:
			if err := p.rx.Reject(msg.DeliveryTag(), p.rejectOpts.Requeue); err != nil {
				err = ampqerr.TransportErr("Producer.RPC", err)
				slog.Error("[producer] failed to reject reply",
					"delivery.tag", msg.DeliveryTag(),
					"error", err.Error(),
				)
				return nil, err
			}
		case handler.Nack:
			if err := p.rx.Nack(msg.DeliveryTag(), p.nackOpts.Multiple, p.nackOpts.Requeue); err != nil {
				err = ampqerr.TransportErr("Producer.RPC", err)
				slog.Error("[producer] failed to nack reply",
					"delivery.tag", msg.DeliveryTag(),
					"error", err.Error(),
				)
				return nil, err
			}
		case handler.Drop:
			// leave unsettled; broker redelivers
		}
		return []byte{}, nil
	}

	if err := p.rx.Ack(msg.DeliveryTag(), p.ackOpts.Multiple); err != nil {
		err = ampqerr.TransportErr("Producer.RPC", err)
		slog.Error("[producer] failed to acknowledge reply",
			"delivery.tag", msg.DeliveryTag(),
			"error", err.Error(),
		)
		return nil, err
	}
	return msg.Payload(), nil
}

// Close closes both the send and receive channels. Closing rx triggers the
// broker's auto-delete of the ephemeral reply queue.
func (p *Producer) Close() error {
	if err := p.tx.Close(); err != nil {
		return ampqerr.TransportErr("Producer.Close", err)
	}
	if err := p.rx.Close(); err != nil {
		return ampqerr.TransportErr("Producer.Close", err)
	}
	return nil
}
