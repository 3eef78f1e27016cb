package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/dihedron/ampq/message"
	amqp "github.com/rabbitmq/amqp091-go"
)

func TestOperationString(t *testing.T) {
	cases := []struct {
		op   Operation
		want string
	}{
		{OperationCreate, "create"},
		{OperationSend, "send"},
		{OperationReceive, "receive"},
		{OperationProcess, "process"},
		{OperationSettle, "settle"},
	}
	for _, c := range cases {
		if got := c.op.String(); got != c.want {
			t.Errorf("%d.String() = %q, want %q", c.op, got, c.want)
		}
	}
}

func TestSpanKindOtelKind(t *testing.T) {
	t.Run("internal by default", func(t *testing.T) {
		if SpanKind(99).otelKind().String() != SpanKindInternal.otelKind().String() {
			t.Error("unknown SpanKind should map to internal")
		}
	})
}

func TestStartNoopWhenDisabled(t *testing.T) {
	tracer := New("test-service")
	ctx, span := tracer.Start(context.Background(), "op", SpanKindInternal, OperationCreate, nil)
	if ctx == nil {
		t.Fatal("Start() returned nil context")
	}
	// a disabled tracer's span methods must be safe no-ops.
	span.Success("ok")
	span.Error(errors.New("boom"), "failed")
	span.End()
}

func TestStartWithMessageAttachesAttributesWithoutPanic(t *testing.T) {
	Enable()
	defer func() { enabled = false }()

	tracer := New("test-service")
	msg := message.New(amqp.Delivery{
		MessageId:     "id-1",
		CorrelationId: "corr-1",
		ReplyTo:       "reply-q",
		DeliveryTag:   7,
	})

	ctx, span := tracer.Start(context.Background(), "Consumer.handle", SpanKindConsumer, OperationProcess, msg)
	if ctx == nil {
		t.Fatal("Start() returned nil context")
	}
	span.Success("processed")
	span.End()
}

func TestStartEnabledWithoutMessage(t *testing.T) {
	Enable()
	defer func() { enabled = false }()

	tracer := New("test-service")
	ctx, span := tracer.Start(context.Background(), "Connection.Queue", SpanKindInternal, OperationCreate, nil)
	if ctx == nil {
		t.Fatal("Start() returned nil context")
	}
	span.Error(errors.New("boom"), "failed")
	span.End()
}
