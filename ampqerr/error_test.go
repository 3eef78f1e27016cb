package ampqerr

import (
	"errors"
	"io"
	"testing"
)

func TestErrorEquality(t *testing.T) {
	tests := []struct {
		name  string
		a     error
		b     error
		equal bool
	}{
		{
			name:  "same kind same cause message",
			a:     TransportErr("Connection.Channel", io.EOF),
			b:     TransportErr("Connection.Queue", io.EOF),
			equal: true,
		},
		{
			name:  "transport vs other",
			a:     TransportErr("op", io.EOF),
			b:     OtherErr("op", io.EOF),
			equal: false,
		},
		{
			name:  "different causes",
			a:     TransportErr("op", io.EOF),
			b:     TransportErr("op", io.ErrClosedPipe),
			equal: false,
		},
		{
			name:  "other equals other with same message",
			a:     OtherErr("op", errors.New("boom")),
			b:     OtherErr("op", errors.New("boom")),
			equal: true,
		},
		{
			name:  "nil cause vs non-nil cause",
			a:     TransportErr("op", io.EOF),
			b:     &Error{Kind: Transport, Cause: nil},
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.a, tt.b)
			if got != tt.equal {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.equal)
			}
		})
	}
}

func TestTransportErrNilPassthrough(t *testing.T) {
	if err := TransportErr("op", nil); err != nil {
		t.Fatalf("TransportErr(op, nil) = %v, want nil", err)
	}
	if err := OtherErr("op", nil); err != nil {
		t.Fatalf("OtherErr(op, nil) = %v, want nil", err)
	}
}

func TestUnwrap(t *testing.T) {
	err := TransportErr("Producer.RPC", io.EOF)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("errors.Is(err, io.EOF) = false, want true")
	}
}
