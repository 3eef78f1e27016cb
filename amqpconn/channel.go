package amqpconn

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp091.Channel behavior the rest of this
// module depends on. Abstracting it behind an interface keeps Connection,
// Consumer, and Producer exercisable against a fake broker in tests;
// *amqp091.Channel satisfies it without any adapter.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Ack(tag uint64, multiple bool) error
	Reject(tag uint64, requeue bool) error
	Nack(tag uint64, multiple, requeue bool) error
	Close() error
}
