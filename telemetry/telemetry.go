// Package telemetry wraps OpenTelemetry span creation for Connection,
// Consumer, and Producer operations behind a small, opinionated helper
// layer so call sites don't touch the otel API directly. Tracing is
// opt-in: until Enable is called, Start returns a no-op span.
package telemetry

import (
	"context"

	"github.com/dihedron/ampq/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var enabled = false

// Enable turns on tracing for the process. Until called, Start returns a
// no-op Span whose methods are safe to call but record nothing.
func Enable() {
	enabled = true
}

// SpanKind mirrors the messaging-relevant subset of trace.SpanKind.
type SpanKind int

const (
	SpanKindInternal SpanKind = iota
	SpanKindProducer
	SpanKindConsumer
)

func (k SpanKind) otelKind() trace.SpanKind {
	switch k {
	case SpanKindProducer:
		return trace.SpanKindProducer
	case SpanKindConsumer:
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}

// Operation names the messaging operation a span represents, following the
// OpenTelemetry messaging semantic conventions.
type Operation int

const (
	OperationCreate Operation = iota
	OperationSend
	OperationReceive
	OperationProcess
	OperationSettle
)

func (op Operation) String() string {
	switch op {
	case OperationSend:
		return "send"
	case OperationReceive:
		return "receive"
	case OperationProcess:
		return "process"
	case OperationSettle:
		return "settle"
	default:
		return "create"
	}
}

// Tracer starts spans for one named component (e.g. a producer or
// consumer instance).
type Tracer struct {
	tracer trace.Tracer
}

// New returns a Tracer that names spans under serviceName.
func New(serviceName string) *Tracer {
	return &Tracer{tracer: otel.Tracer(serviceName)}
}

// Span wraps an OpenTelemetry span with messaging-oriented helpers.
type Span struct {
	span trace.Span
}

// Start begins a span named name for operation op/kind, attaching
// messaging attributes derived from msg (may be nil for a connection-level
// span, e.g. Connection.Queue).
func (t *Tracer) Start(ctx context.Context, name string, kind SpanKind, op Operation, msg *message.Message) (context.Context, *Span) {
	if !enabled {
		return ctx, &Span{}
	}

	attrs := []attribute.KeyValue{
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.operation.type", op.String()),
	}
	if msg != nil {
		attrs = append(attrs,
			attribute.String("messaging.message.id", msg.MessageID()),
			attribute.String("messaging.message.correlation_id", msg.CorrelationID()),
			attribute.Int64("messaging.rabbitmq.delivery_tag", int64(msg.DeliveryTag())),
		)
		if msg.ReplyTo() != "" {
			attrs = append(attrs, attribute.String("messaging.destination.name", msg.ReplyTo()))
		}
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(kind.otelKind()),
		trace.WithAttributes(attrs...),
	)
	return ctx, &Span{span: span}
}

// End finalizes the span.
func (s *Span) End() {
	if s.span == nil {
		return
	}
	s.span.End()
}

// Success marks the span OK with the given message.
func (s *Span) Success(msg string) {
	if s.span == nil {
		return
	}
	s.span.SetStatus(codes.Ok, msg)
}

// Error marks the span errored and records err.
func (s *Span) Error(err error, msg string) {
	if s.span == nil {
		return
	}
	s.span.SetStatus(codes.Error, msg)
	s.span.RecordError(err)
}
