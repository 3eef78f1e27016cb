package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	ampqconn "github.com/dihedron/ampq/amqpconn"
	"github.com/dihedron/ampq/handler"
	"github.com/dihedron/ampq/message"
	amqp "github.com/rabbitmq/amqp091-go"
)

// fakeChannel is a minimal in-memory stand-in for ampqconn.Channel.
type fakeChannel struct {
	deliveries chan amqp.Delivery

	acks    []uint64
	rejects []uint64
	nacks   []uint64
	publishes []amqp.Publishing

	consumeErr error
	closed     bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp.Delivery, 4)}
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}
func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return nil
}
func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return nil
}
func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	return f.deliveries, nil
}
func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.publishes = append(f.publishes, msg)
	return nil
}
func (f *fakeChannel) Ack(tag uint64, multiple bool) error {
	f.acks = append(f.acks, tag)
	return nil
}
func (f *fakeChannel) Reject(tag uint64, requeue bool) error {
	f.rejects = append(f.rejects, tag)
	return nil
}
func (f *fakeChannel) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks = append(f.nacks, tag)
	return nil
}
func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

// fakeConnection implements the connection interface this package needs.
type fakeConnection struct {
	channel *fakeChannel
}

func (f *fakeConnection) Channel() (ampqconn.Channel, error) {
	return f.channel, nil
}
func (f *fakeConnection) Queue(exchange, queue string, opts ampqconn.QueueOptions) (ampqconn.Channel, amqp.Queue, error) {
	return f.channel, amqp.Queue{Name: queue}, nil
}

type rejectProcessor struct{}

func (rejectProcessor) Process(msg *message.Message) ([]byte, error) {
	return nil, &handler.DirectiveError{Directive: handler.Reject}
}

type errProcessor struct{ err error }

func (p errProcessor) Process(msg *message.Message) ([]byte, error) {
	return nil, p.err
}

func buildTestConsumer(t *testing.T, ch *fakeChannel, opts ...func(*ConsumerBuilder)) *Consumer {
	t.Helper()
	b := NewConsumerBuilder(&fakeConnection{channel: ch}, "async-mq", "request")
	for _, o := range opts {
		o(b)
	}
	c, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v, want nil", err)
	}
	return c
}

func TestConsumerRunEchoesAndAcks(t *testing.T) {
	ch := newFakeChannel()
	c := buildTestConsumer(t, ch)

	ch.deliveries <- amqp.Delivery{Body: []byte("hello"), DeliveryTag: 1, ReplyTo: "reply-q"}
	close(ch.deliveries)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	if len(ch.publishes) != 1 || string(ch.publishes[0].Body) != "hello" {
		t.Errorf("publishes = %+v, want one echoing 'hello'", ch.publishes)
	}
	if len(ch.acks) != 1 || ch.acks[0] != 1 {
		t.Errorf("acks = %v, want [1]", ch.acks)
	}
	if len(ch.rejects) != 0 {
		t.Errorf("rejects = %v, want none", ch.rejects)
	}
}

func TestConsumerRunAcksWithoutReplyWhenNoReplyTo(t *testing.T) {
	ch := newFakeChannel()
	c := buildTestConsumer(t, ch)

	ch.deliveries <- amqp.Delivery{Body: []byte("x"), DeliveryTag: 7}
	close(ch.deliveries)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if len(ch.publishes) != 0 {
		t.Errorf("publishes = %+v, want none (no reply_to)", ch.publishes)
	}
	if len(ch.acks) != 1 || ch.acks[0] != 7 {
		t.Errorf("acks = %v, want [7]", ch.acks)
	}
}

func TestConsumerRunRejectsOnProcessorError(t *testing.T) {
	ch := newFakeChannel()
	c := buildTestConsumer(t, ch, func(b *ConsumerBuilder) {
		b.WithProcessor(errProcessor{err: errors.New("boom")})
	})

	ch.deliveries <- amqp.Delivery{Body: []byte("x"), DeliveryTag: 3}
	close(ch.deliveries)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if len(ch.rejects) != 1 || ch.rejects[0] != 3 {
		t.Errorf("rejects = %v, want [3]", ch.rejects)
	}
	if len(ch.acks) != 0 {
		t.Errorf("acks = %v, want none", ch.acks)
	}
}

func TestConsumerRunDirectiveReject(t *testing.T) {
	ch := newFakeChannel()
	c := buildTestConsumer(t, ch, func(b *ConsumerBuilder) {
		b.WithProcessor(rejectProcessor{})
	})

	ch.deliveries <- amqp.Delivery{Body: []byte("x"), DeliveryTag: 9}
	close(ch.deliveries)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if len(ch.rejects) != 1 || ch.rejects[0] != 9 {
		t.Errorf("rejects = %v, want [9]", ch.rejects)
	}
}

func TestConsumerDropPolicyRedeliverLeavesUnsettled(t *testing.T) {
	ch := newFakeChannel()
	req := message.New(amqp.Delivery{DeliveryTag: 5})
	c := buildTestConsumer(t, ch)

	if err := c.Settle(req, handler.Drop); err != nil {
		t.Fatalf("Settle() error = %v, want nil", err)
	}
	if len(ch.acks) != 0 || len(ch.rejects) != 0 || len(ch.nacks) != 0 {
		t.Errorf("expected no settlement calls under DropRedeliver, got acks=%v rejects=%v nacks=%v", ch.acks, ch.rejects, ch.nacks)
	}
}

func TestConsumerDropPolicyAckSettles(t *testing.T) {
	ch := newFakeChannel()
	req := message.New(amqp.Delivery{DeliveryTag: 5})
	c := buildTestConsumer(t, ch, func(b *ConsumerBuilder) {
		b.WithDropPolicy(DropAck)
	})

	if err := c.Settle(req, handler.Drop); err != nil {
		t.Fatalf("Settle() error = %v, want nil", err)
	}
	if len(ch.acks) != 1 || ch.acks[0] != 5 {
		t.Errorf("acks = %v, want [5] under DropAck", ch.acks)
	}
}

func TestConsumerNextManualMode(t *testing.T) {
	ch := newFakeChannel()
	c := buildTestConsumer(t, ch)
	ch.deliveries <- amqp.Delivery{Body: []byte("manual"), DeliveryTag: 1}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, err := c.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v, want nil", err)
	}
	if string(msg.Payload()) != "manual" {
		t.Errorf("Payload() = %q, want manual", msg.Payload())
	}

	if err := c.Respond(ctx, msg, []byte("resp")); err != nil {
		t.Fatalf("Respond() error = %v, want nil", err)
	}
	if len(ch.acks) != 1 {
		t.Errorf("acks = %v, want one ack after manual Respond", ch.acks)
	}
}

func TestConsumerClose(t *testing.T) {
	ch := newFakeChannel()
	c := buildTestConsumer(t, ch)
	close(ch.deliveries)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v, want nil", err)
	}
	if !ch.closed {
		t.Error("underlying channel not closed")
	}
}
