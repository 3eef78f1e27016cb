package schema

import "testing"

func TestRoundTrip(t *testing.T) {
	ids := []uint64{0, 1000}
	msgs := []string{"a", "b", "c", "d"}
	types := []Type{Hello, Goodbye}

	for _, id := range ids {
		for _, msg := range msgs {
			for _, mt := range types {
				m := New(id, msg, mt)
				got, err := Decode(Encode(m))
				if err != nil {
					t.Fatalf("Decode(Encode(%+v)) error = %v", m, err)
				}
				if got != m {
					t.Errorf("Decode(Encode(%+v)) = %+v, want %+v", m, got, m)
				}
			}
		}
	}
}

func TestRoundTripWithoutBody(t *testing.T) {
	m := NewWithoutBody(42, Goodbye)
	got, err := Decode(Encode(m))
	if err != nil {
		t.Fatalf("Decode(Encode(%+v)) error = %v", m, err)
	}
	if got != m {
		t.Errorf("Decode(Encode(%+v)) = %+v, want %+v", m, got, m)
	}
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	if err != ErrTruncated {
		t.Errorf("Decode(short buf) error = %v, want ErrTruncated", err)
	}
}

func TestTypeString(t *testing.T) {
	if Hello.String() != "Hello" {
		t.Errorf("Hello.String() = %q, want Hello", Hello.String())
	}
	if Goodbye.String() != "Goodbye" {
		t.Errorf("Goodbye.String() = %q, want Goodbye", Goodbye.String())
	}
	if Type(99).String() != "Unknown" {
		t.Errorf("Type(99).String() = %q, want Unknown", Type(99).String())
	}
}
