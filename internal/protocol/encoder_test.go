package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func be32(n uint32) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func TestEncode(t *testing.T) {
	mpub, err := MultiPublish("test", [][]byte{[]byte("hello"), []byte("world")})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		value Value
		want  []byte
	}{
		{
			name:  "nop",
			value: Command{Line: "NOP"},
			want:  []byte("NOP\n"),
		},
		{
			name:  "publish",
			value: Publish("test", []byte("hello world")),
			want:  concat([]byte("PUB test\n"), be32(11), []byte("hello world")),
		},
		{
			name:  "multi publish",
			value: mpub,
			want: concat([]byte("MPUB test\n"), be32(2),
				be32(5), []byte("hello"),
				be32(5), []byte("world")),
		},
		{
			name:  "multi-byte characters are counted in bytes",
			value: Publish("test", []byte("©¥£")),
			want:  concat([]byte("PUB test\n"), be32(6), []byte("©¥£")),
		},
		{
			name:  "identify with empty document",
			value: Identify([]byte("{}")),
			want:  []byte("IDENTIFY\n\x00\x00\x00\x02{}"),
		},
		{
			name:  "empty payload",
			value: Publish("t", nil),
			want:  concat([]byte("PUB t\n"), be32(0)),
		},
		{
			name:  "payload list with empty body",
			value: CommandWithPayloads{Line: "MPUB t", Payloads: [][]byte{{}, []byte("x")}},
			want:  concat([]byte("MPUB t\n"), be32(2), be32(0), be32(1), []byte("x")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, tt.value); err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			if !bytes.Equal(buf.Bytes(), tt.want) {
				t.Errorf("Encode() = %q, want %q", buf.Bytes(), tt.want)
			}

			n, err := EncodedLen(tt.value)
			if err != nil {
				t.Fatalf("EncodedLen() error: %v", err)
			}
			if n != len(tt.want) {
				t.Errorf("EncodedLen() = %d, want %d", n, len(tt.want))
			}
		})
	}
}

func TestEncode_Appends(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("existing")

	if err := Encode(&buf, Nop()); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "existingNOP\n" {
		t.Errorf("buffer = %q, want %q", got, "existingNOP\n")
	}
}

func TestEncode_RejectsDecodeOnlyValues(t *testing.T) {
	values := []Value{
		nil,
		Response{Text: "OK"},
		Heartbeat{},
		RemoteError{Text: "E_INVALID"},
		Message{Body: []byte("x")},
	}

	for _, v := range values {
		var buf bytes.Buffer
		buf.WriteString("keep")
		err := Encode(&buf, v)
		if !errors.Is(err, ErrUnexpected) {
			t.Errorf("Encode(%v) error = %v, want unexpected", v, err)
		}
		if !IsUnexpected(err) {
			t.Errorf("IsUnexpected(%v) = false", err)
		}
		if buf.String() != "keep" {
			t.Errorf("Encode(%v) wrote %q", v, buf.String()[4:])
		}
	}
}

func TestAppendMagic(t *testing.T) {
	var buf bytes.Buffer
	AppendMagic(&buf)
	if !bytes.Equal(buf.Bytes(), []byte{' ', ' ', 'V', '2'}) {
		t.Errorf("magic = %q, want %q", buf.Bytes(), "  V2")
	}
}
