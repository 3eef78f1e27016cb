package handler

import (
	"errors"
	"testing"

	"github.com/dihedron/ampq/message"
	amqp "github.com/rabbitmq/amqp091-go"
)

func TestEchoProcessor(t *testing.T) {
	m := message.New(amqp.Delivery{Body: []byte("ping")})
	resp, err := EchoProcessor{}.Process(m)
	if err != nil {
		t.Fatalf("Process() error = %v, want nil", err)
	}
	if string(resp) != "ping" {
		t.Errorf("Process() = %q, want %q", resp, "ping")
	}
}

func TestNoopPeeker(t *testing.T) {
	m := message.New(amqp.Delivery{Body: []byte("pong")})
	if err := (NoopPeeker{}).Peek(m); err != nil {
		t.Errorf("Peek() error = %v, want nil", err)
	}
}

func TestRejectPeeker(t *testing.T) {
	m := message.New(amqp.Delivery{Body: []byte("pong")})
	err := (RejectPeeker{}).Peek(m)
	directive, ok := AsDirective(err)
	if !ok {
		t.Fatalf("AsDirective(%v) ok = false, want true", err)
	}
	if directive != Reject {
		t.Errorf("directive = %v, want Reject", directive)
	}
}

func TestAsDirectiveRejectsPlainErrors(t *testing.T) {
	if _, ok := AsDirective(nil); ok {
		t.Error("AsDirective(nil) ok = true, want false")
	}
	if _, ok := AsDirective(errors.New("boom")); ok {
		t.Error("AsDirective(plain error) ok = true, want false")
	}
}

func TestDirectiveString(t *testing.T) {
	tests := map[Directive]string{
		Drop:           "drop",
		Reject:         "reject",
		Nack:           "nack",
		Directive(127): "unknown",
	}
	for d, want := range tests {
		if got := d.String(); got != want {
			t.Errorf("Directive(%d).String() = %q, want %q", d, got, want)
		}
	}
}
