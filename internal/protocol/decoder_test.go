package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// rawFrame builds header + payload with an explicit size field so tests can
// lie about the size
func rawFrame(size uint32, frameType int32, payload []byte) []byte {
	b := make([]byte, HeaderLength+len(payload))
	binary.BigEndian.PutUint32(b[0:4], size)
	binary.BigEndian.PutUint32(b[4:8], uint32(frameType))
	copy(b[8:], payload)
	return b
}

func frame(frameType int32, payload []byte) []byte {
	return rawFrame(uint32(FrameTypeLength+len(payload)), frameType, payload)
}

func messagePayload(ts uint64, attempts uint16, id string, body []byte) []byte {
	p := make([]byte, MessageHeaderLength+len(body))
	binary.BigEndian.PutUint64(p[0:8], ts)
	binary.BigEndian.PutUint16(p[8:10], attempts)
	copy(p[10:26], id)
	copy(p[26:], body)
	return p
}

func testID(t *testing.T, s string) MessageID {
	t.Helper()
	id, err := ParseMessageID(s)
	if err != nil {
		t.Fatalf("ParseMessageID(%q): %v", s, err)
	}
	return id
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		wantOK    bool
		wantErr   error
		remaining int
		verify    func(t *testing.T, v Value)
	}{
		{
			name:      "ok response",
			input:     frame(0, []byte("OK")),
			wantOK:    true,
			remaining: 0,
			verify: func(t *testing.T, v Value) {
				r, ok := v.(Response)
				if !ok {
					t.Fatalf("value = %T, want Response", v)
				}
				if r.Text != "OK" {
					t.Errorf("text = %q, want %q", r.Text, "OK")
				}
			},
		},
		{
			name:   "heartbeat",
			input:  frame(0, []byte(HeartbeatText)),
			wantOK: true,
			verify: func(t *testing.T, v Value) {
				if _, ok := v.(Heartbeat); !ok {
					t.Errorf("value = %v, want Heartbeat", v)
				}
			},
		},
		{
			name:   "heartbeat text with suffix is a response",
			input:  frame(0, []byte(HeartbeatText+"x")),
			wantOK: true,
			verify: func(t *testing.T, v Value) {
				if v.Type() != TypeResponse {
					t.Errorf("type = %s, want Response", v.Type())
				}
			},
		},
		{
			name:   "empty response",
			input:  frame(0, nil),
			wantOK: true,
			verify: func(t *testing.T, v Value) {
				if r := v.(Response); r.Text != "" {
					t.Errorf("text = %q, want empty", r.Text)
				}
			},
		},
		{
			name:   "error frame",
			input:  frame(1, []byte("E_INVALID cannot SUB in current state")),
			wantOK: true,
			verify: func(t *testing.T, v Value) {
				e, ok := v.(RemoteError)
				if !ok {
					t.Fatalf("value = %T, want RemoteError", v)
				}
				if e.Text != "E_INVALID cannot SUB in current state" {
					t.Errorf("text = %q", e.Text)
				}
				if e.Code() != "E_INVALID" {
					t.Errorf("code = %q, want E_INVALID", e.Code())
				}
			},
		},
		{
			name:   "error frame with heartbeat text stays an error",
			input:  frame(1, []byte(HeartbeatText)),
			wantOK: true,
			verify: func(t *testing.T, v Value) {
				if v.Type() != TypeRemoteError {
					t.Errorf("type = %s, want RemoteError", v.Type())
				}
			},
		},
		{
			name:   "message",
			input:  frame(2, messagePayload(1700000000000000000, 3, "0123456789abcdef", []byte("hello"))),
			wantOK: true,
			verify: func(t *testing.T, v Value) {
				m, ok := v.(Message)
				if !ok {
					t.Fatalf("value = %T, want Message", v)
				}
				if m.Timestamp != 1700000000000000000 {
					t.Errorf("timestamp = %d, want 1700000000000000000", m.Timestamp)
				}
				if m.Attempts != 3 {
					t.Errorf("attempts = %d, want 3", m.Attempts)
				}
				if m.ID.String() != "0123456789abcdef" {
					t.Errorf("id = %q, want 0123456789abcdef", m.ID)
				}
				if !bytes.Equal(m.Body, []byte("hello")) {
					t.Errorf("body = %q, want hello", m.Body)
				}
			},
		},
		{
			name:   "message with non-UTF8 body",
			input:  frame(2, messagePayload(1, 1, "0123456789abcdef", []byte{0xff, 0xfe, 0x00})),
			wantOK: true,
			verify: func(t *testing.T, v Value) {
				m := v.(Message)
				if !bytes.Equal(m.Body, []byte{0xff, 0xfe, 0x00}) {
					t.Errorf("body = %x, want fffe00", m.Body)
				}
			},
		},
		{
			name:   "message with empty body",
			input:  frame(2, messagePayload(1, 1, "0123456789abcdef", nil)),
			wantOK: true,
			verify: func(t *testing.T, v Value) {
				if m := v.(Message); len(m.Body) != 0 {
					t.Errorf("body length = %d, want 0", len(m.Body))
				}
			},
		},
		{
			name:      "trailing bytes are left",
			input:     append(frame(0, []byte("OK")), 0x00, 0x00, 0x00),
			wantOK:    true,
			remaining: 3,
		},
		{
			name:      "empty buffer",
			input:     nil,
			remaining: 0,
		},
		{
			name:      "seven bytes",
			input:     frame(0, []byte("OK"))[:7],
			remaining: 7,
		},
		{
			name:      "incomplete payload",
			input:     frame(0, []byte("OK"))[:9],
			remaining: 9,
		},
		{
			name:      "declared size far beyond buffered bytes",
			input:     rawFrame(1000, 0, []byte("OK")),
			remaining: 10,
		},
		{
			name:      "unknown frame type consumes the frame",
			input:     append(frame(7, []byte("??")), frame(0, []byte("OK"))...),
			wantErr:   ErrUnknownFrameType,
			remaining: 10,
		},
		{
			name:      "negative frame type",
			input:     frame(-1, nil),
			wantErr:   ErrUnknownFrameType,
			remaining: 0,
		},
		{
			name:      "non-UTF8 response",
			input:     frame(0, []byte{0xc3, 0x28}),
			wantErr:   ErrInvalidEncoding,
			remaining: 0,
		},
		{
			name:      "non-UTF8 error",
			input:     frame(1, []byte{0xff}),
			wantErr:   ErrInvalidEncoding,
			remaining: 0,
		},
		{
			name:      "short message payload",
			input:     frame(2, make([]byte, MessageHeaderLength-1)),
			wantErr:   ErrMalformedFrame,
			remaining: 0,
		},
		{
			name:      "size smaller than frame type field",
			input:     rawFrame(3, 0, nil),
			wantErr:   ErrMalformedFrame,
			remaining: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bytes.NewBuffer(append([]byte(nil), tt.input...))
			v, ok, err := Decode(buf)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				if v != nil || ok {
					t.Errorf("Decode() = (%v, %v), want (nil, false) with error", v, ok)
				}
			} else if err != nil {
				t.Fatalf("Decode() unexpected error: %v", err)
			}

			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok && tt.wantErr == nil && v != nil {
				t.Errorf("pending returned value %v", v)
			}
			if buf.Len() != tt.remaining {
				t.Errorf("remaining = %d, want %d", buf.Len(), tt.remaining)
			}
			if tt.verify != nil && ok {
				tt.verify(t, v)
			}
		})
	}
}

func TestDecode_PendingLeavesBufferUnchanged(t *testing.T) {
	full := frame(2, messagePayload(42, 1, "0123456789abcdef", []byte("payload")))

	for n := 0; n < len(full); n++ {
		buf := bytes.NewBuffer(append([]byte(nil), full[:n]...))
		v, ok, err := Decode(buf)
		if err != nil || ok || v != nil {
			t.Fatalf("prefix %d: Decode() = (%v, %v, %v), want pending", n, v, ok, err)
		}
		if !bytes.Equal(buf.Bytes(), full[:n]) {
			t.Fatalf("prefix %d: buffer modified", n)
		}
	}
}

func TestDecode_ConsumesExactlyOneFrame(t *testing.T) {
	payloads := [][]byte{nil, []byte("OK"), []byte("a longer response body"), bytes.Repeat([]byte("x"), 5000)}

	for _, p := range payloads {
		buf := new(bytes.Buffer)
		buf.Write(frame(0, p))
		extra := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
		buf.Write(extra)

		_, ok, err := Decode(buf)
		if err != nil || !ok {
			t.Fatalf("payload %d bytes: Decode() ok=%v err=%v", len(p), ok, err)
		}
		if !bytes.Equal(buf.Bytes(), extra) {
			t.Errorf("payload %d bytes: remaining = %x, want %x", len(p), buf.Bytes(), extra)
		}
	}
}

func TestDecode_Sequence(t *testing.T) {
	buf := new(bytes.Buffer)
	AppendResponseFrame(buf, "OK")
	AppendHeartbeatFrame(buf)
	AppendErrorFrame(buf, "E_BAD_TOPIC")
	AppendMessageFrame(buf, Message{Timestamp: 9, Attempts: 1, ID: testID(t, "0123456789abcdef"), Body: []byte("b")})
	partial := frame(0, []byte("partial"))[:6]
	buf.Write(partial)

	want := []ValueType{TypeResponse, TypeHeartbeat, TypeRemoteError, TypeMessage}
	for i, w := range want {
		v, ok, err := Decode(buf)
		if err != nil || !ok {
			t.Fatalf("frame %d: ok=%v err=%v", i, ok, err)
		}
		if v.Type() != w {
			t.Errorf("frame %d: type = %s, want %s", i, v.Type(), w)
		}
	}

	v, ok, err := Decode(buf)
	if v != nil || ok || err != nil {
		t.Fatalf("after frames: Decode() = (%v, %v, %v), want pending", v, ok, err)
	}
	if !bytes.Equal(buf.Bytes(), partial) {
		t.Errorf("partial frame modified: %x", buf.Bytes())
	}
}

func TestDecode_MessageBodyIsCopied(t *testing.T) {
	buf := bytes.NewBuffer(frame(2, messagePayload(1, 1, "0123456789abcdef", []byte("keep"))))
	v, _, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}

	buf.Reset()
	buf.Write(bytes.Repeat([]byte{'z'}, 64))

	if m := v.(Message); string(m.Body) != "keep" {
		t.Errorf("body = %q after buffer reuse, want keep", m.Body)
	}
}

func TestDecoder_MaxFrameSize(t *testing.T) {
	d := &Decoder{MaxFrameSize: 16}

	ok := frame(0, []byte("twelve bytes"))
	buf := bytes.NewBuffer(ok)
	if _, got, err := d.Decode(buf); err != nil || !got {
		t.Fatalf("frame at limit: ok=%v err=%v", got, err)
	}

	tooBig := rawFrame(17, 0, nil)
	buf = bytes.NewBuffer(tooBig)
	_, _, err := d.Decode(buf)
	if !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("Decode() error = %v, want malformed frame", err)
	}
	if buf.Len() != len(tooBig) {
		t.Errorf("remaining = %d, want %d", buf.Len(), len(tooBig))
	}

	var zero Decoder
	buf = bytes.NewBuffer(rawFrame(DefaultMaxFrameSize+1, 0, nil))
	if _, _, err := zero.Decode(buf); !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("zero decoder error = %v, want malformed frame", err)
	}
}

func TestDecode_UnknownFrameTypeCarriesType(t *testing.T) {
	buf := bytes.NewBuffer(frame(42, nil))
	_, _, err := Decode(buf)

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error %v is not *Error", err)
	}
	if e.FrameType != 42 {
		t.Errorf("frame type = %d, want 42", e.FrameType)
	}
	if !IsFatal(err) {
		t.Error("unknown frame type should be fatal")
	}
}
