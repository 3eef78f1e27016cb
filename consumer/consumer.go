package consumer

import (
	"context"
	"log/slog"

	"github.com/dihedron/ampq/ampqerr"
	ampqconn "github.com/dihedron/ampq/amqpconn"
	"github.com/dihedron/ampq/handler"
	"github.com/dihedron/ampq/message"
	"github.com/dihedron/ampq/telemetry"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer owns one channel, one subscribing cursor, a processor, and the
// publish/ack/reject/nack option bundles used to settle each delivery.
// Run settles each received delivery at most once, and finishes with it
// before taking the next; a Drop directive under DropRedeliver leaves the
// delivery unsettled. A Consumer must be driven by exactly one goroutine; share by
// building more instances from the same ConsumerBuilder.
type Consumer struct {
	channel    ampqconn.Channel
	exchange   string
	deliveries <-chan amqp.Delivery

	processor handler.MessageProcess

	publishOpts ampqconn.PublishOptions
	ackOpts     ampqconn.SettleOptions
	rejectOpts  ampqconn.SettleOptions
	nackOpts    ampqconn.SettleOptions
	dropPolicy  DropPolicy

	tracer *telemetry.Tracer
}

// Run is the main loop: for each delivery, it applies the processor and
// settles the delivery per the processor's outcome. It returns nil when
// ctx is cancelled or the delivery stream closes, and returns the first
// transport error encountered otherwise — callers re-drive by rebuilding.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-c.deliveries:
			if !ok {
				return nil
			}
			if err := c.handle(ctx, d); err != nil {
				return err
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) error {
	req := message.New(d)
	ctx, span := c.tracer.Start(ctx, "Consumer.handle", telemetry.SpanKindConsumer, telemetry.OperationProcess, req)
	defer span.End()

	resp, err := c.processor.Process(req)
	if err != nil {
		if directive, ok := handler.AsDirective(err); ok {
			span.Success("settled via processor directive " + directive.String())
			return c.Settle(req, directive)
		}
		span.Error(err, "processor failed")
		slog.Error("[consumer] processor failed, rejecting delivery",
			"delivery.tag", req.DeliveryTag(),
			"error", err.Error(),
		)
		return c.Reject(req)
	}
	span.Success("processed")
	return c.Respond(ctx, req, resp)
}

// Respond publishes resp to req's reply-to routing key (when present) and
// acks req. It acks even when req carries no reply-to: the request is
// merely consumed.
func (c *Consumer) Respond(ctx context.Context, req *message.Message, resp []byte) error {
	if req.ReplyTo() != "" {
		pub := amqp.Publishing{Body: resp}
		if err := c.channel.PublishWithContext(
			ctx, c.exchange, req.ReplyTo(),
			c.publishOpts.Mandatory, c.publishOpts.Immediate, pub,
		); err != nil {
			err = ampqerr.TransportErr("Consumer.Respond", err)
			slog.Error("[consumer] failed to publish reply",
				"delivery.tag", req.DeliveryTag(),
				"reply.to", req.ReplyTo(),
				"error", err.Error(),
			)
			return err
		}
	}
	if err := c.channel.Ack(req.DeliveryTag(), c.ackOpts.Multiple); err != nil {
		err = ampqerr.TransportErr("Consumer.Respond", err)
		slog.Error("[consumer] failed to acknowledge delivery",
			"delivery.tag", req.DeliveryTag(),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// Reject settles req with basic.reject.
func (c *Consumer) Reject(req *message.Message) error {
	if err := c.channel.Reject(req.DeliveryTag(), c.rejectOpts.Requeue); err != nil {
		err = ampqerr.TransportErr("Consumer.Reject", err)
		slog.Error("[consumer] failed to reject delivery",
			"delivery.tag", req.DeliveryTag(),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// Nack settles req with basic.nack.
func (c *Consumer) Nack(req *message.Message) error {
	if err := c.channel.Nack(req.DeliveryTag(), c.nackOpts.Multiple, c.nackOpts.Requeue); err != nil {
		err = ampqerr.TransportErr("Consumer.Nack", err)
		slog.Error("[consumer] failed to nack delivery",
			"delivery.tag", req.DeliveryTag(),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// Settle maps a handler.Directive to the matching settlement call: Reject
// and Nack settle immediately; Drop settles per the Consumer's DropPolicy
// (leave unsettled by default, or ack with no reply under DropAck).
func (c *Consumer) Settle(req *message.Message, d handler.Directive) error {
	switch d {
	case handler.Reject:
		return c.Reject(req)
	case handler.Nack:
		return c.Nack(req)
	default:
		if c.dropPolicy == DropAck {
			if err := c.channel.Ack(req.DeliveryTag(), c.ackOpts.Multiple); err != nil {
				err = ampqerr.TransportErr("Consumer.Settle", err)
				slog.Error("[consumer] failed to ack dropped delivery",
					"delivery.tag", req.DeliveryTag(),
					"error", err.Error(),
				)
				return err
			}
		}
		return nil
	}
}

// Next returns the next delivery from the stream for manual-mode control,
// bypassing Run and its processor. It returns (nil, nil) when the stream
// closes.
func (c *Consumer) Next(ctx context.Context) (*message.Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-c.deliveries:
		if !ok {
			return nil, nil
		}
		return message.New(d), nil
	}
}

// Close cancels the subscription by closing the underlying channel.
func (c *Consumer) Close() error {
	if err := c.channel.Close(); err != nil {
		return ampqerr.TransportErr("Consumer.Close", err)
	}
	return nil
}
