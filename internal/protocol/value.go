package protocol

import (
	"fmt"
	"strings"
	"time"
)

// ValueType identifies a protocol value variant
type ValueType int

// Value types. The first four are produced by the decoder; the command
// types are produced by the builders and consumed by the encoder.
const (
	TypeResponse ValueType = iota + 1
	TypeHeartbeat
	TypeRemoteError
	TypeMessage
	TypeCommand
	TypeCommandWithPayload
	TypeCommandWithPayloads
)

// String returns a human-readable name for a value type
func (t ValueType) String() string {
	switch t {
	case TypeResponse:
		return "Response"
	case TypeHeartbeat:
		return "Heartbeat"
	case TypeRemoteError:
		return "RemoteError"
	case TypeMessage:
		return "Message"
	case TypeCommand:
		return "Command"
	case TypeCommandWithPayload:
		return "CommandWithPayload"
	case TypeCommandWithPayloads:
		return "CommandWithPayloads"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// IsCommand reports whether values of this type can be encoded
func (t ValueType) IsCommand() bool {
	return t == TypeCommand || t == TypeCommandWithPayload || t == TypeCommandWithPayloads
}

// Value is one decoded or encodable wire unit
type Value interface {
	Type() ValueType
	String() string
}

// Response is a server acknowledgement such as "OK"
type Response struct {
	Text string
}

func (Response) Type() ValueType { return TypeResponse }

func (r Response) String() string {
	return fmt.Sprintf("Response{%q}", r.Text)
}

// Heartbeat is the keep-alive response; the client must answer with NOP
type Heartbeat struct{}

func (Heartbeat) Type() ValueType { return TypeHeartbeat }

func (Heartbeat) String() string { return "Heartbeat" }

// RemoteError is an error frame. Text is the server message verbatim,
// for example "E_INVALID cannot SUB in current state".
type RemoteError struct {
	Text string
}

func (RemoteError) Type() ValueType { return TypeRemoteError }

func (e RemoteError) String() string {
	return fmt.Sprintf("RemoteError{%q}", e.Text)
}

// Code returns the leading error code token, e.g. "E_INVALID"
func (e RemoteError) Code() string {
	code, _, _ := strings.Cut(e.Text, " ")
	return code
}

// Err lifts the frame into the error channel
func (e RemoteError) Err() error {
	return NewRemoteError(e.Text)
}

// Message is a delivery from nsqd
type Message struct {
	Timestamp uint64    // nanoseconds since epoch
	Attempts  uint16    // delivery attempts; carried through, not interpreted
	ID        MessageID // 16 ASCII bytes
	Body      []byte    // opaque application payload
}

func (Message) Type() ValueType { return TypeMessage }

func (m Message) String() string {
	return fmt.Sprintf("Message{id=%s, timestamp=%d, attempts=%d, body=%d bytes}",
		m.ID, m.Timestamp, m.Attempts, len(m.Body))
}

// Time returns the message timestamp as a time.Time
func (m Message) Time() time.Time {
	return time.Unix(0, int64(m.Timestamp))
}

// MessageID is the fixed-width identifier nsqd assigns to each message
type MessageID [MessageIDLength]byte

// ParseMessageID converts s into a MessageID. It must be exactly 16
// printable ASCII bytes with no spaces, since ids are written into
// space-separated command lines.
func ParseMessageID(s string) (MessageID, error) {
	var id MessageID
	if len(s) != MessageIDLength {
		return id, newError(KindInvalidCommand, "message id must be %d bytes, got %d", MessageIDLength, len(s))
	}
	copy(id[:], s)
	if !id.Valid() {
		return MessageID{}, newError(KindInvalidCommand, "message id %q contains non-printable or space bytes", s)
	}
	return id, nil
}

// Valid reports whether every byte is printable, non-space ASCII
func (id MessageID) Valid() bool {
	for _, b := range id {
		if b <= ' ' || b > '~' {
			return false
		}
	}
	return true
}

func (id MessageID) String() string {
	return string(id[:])
}

// Command is a bare command line
type Command struct {
	Line string
}

func (Command) Type() ValueType { return TypeCommand }

func (c Command) String() string {
	return fmt.Sprintf("Command{%q}", c.Line)
}

// CommandWithPayload is a command line followed by one length-prefixed body
type CommandWithPayload struct {
	Line    string
	Payload []byte
}

func (CommandWithPayload) Type() ValueType { return TypeCommandWithPayload }

func (c CommandWithPayload) String() string {
	return fmt.Sprintf("CommandWithPayload{%q, payload=%d bytes}", c.Line, len(c.Payload))
}

// CommandWithPayloads is a command line followed by a counted list of
// length-prefixed bodies. List order is wire order.
type CommandWithPayloads struct {
	Line     string
	Payloads [][]byte
}

func (CommandWithPayloads) Type() ValueType { return TypeCommandWithPayloads }

func (c CommandWithPayloads) String() string {
	return fmt.Sprintf("CommandWithPayloads{%q, payloads=%d}", c.Line, len(c.Payloads))
}
