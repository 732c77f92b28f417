package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Frame header layout: 4-byte BE size followed by 4-byte BE frame type
const (
	SizeLength      = 4
	FrameTypeLength = 4
	HeaderLength    = SizeLength + FrameTypeLength
)

// Message payload layout
const (
	TimestampLength     = 8
	AttemptsLength      = 2
	MessageIDLength     = 16
	MessageHeaderLength = TimestampLength + AttemptsLength + MessageIDLength
)

// DefaultMaxFrameSize is the largest declared frame size the default decoder accepts
const DefaultMaxFrameSize = 16 * 1024 * 1024

const (
	lengthPrefixLength = 4
	commandTerminator  = '\n'
)

// HeartbeatText is the response body nsqd sends as a keep-alive
const HeartbeatText = "_heartbeat_"

// MagicV2 is the protocol preamble a client writes once, before any command
const MagicV2 = "  V2"

// FrameType is the frame discriminant carried in every server frame
type FrameType int32

// Frame types
const (
	FrameTypeResponse FrameType = 0
	FrameTypeError    FrameType = 1
	FrameTypeMessage  FrameType = 2
)

// String returns a human-readable frame type name
func (t FrameType) String() string {
	switch t {
	case FrameTypeResponse:
		return "response"
	case FrameTypeError:
		return "error"
	case FrameTypeMessage:
		return "message"
	default:
		return fmt.Sprintf("unknown(%d)", int32(t))
	}
}

// Known reports whether the decoder understands this frame type
func (t FrameType) Known() bool {
	return t == FrameTypeResponse || t == FrameTypeError || t == FrameTypeMessage
}

// AppendFrame writes a complete server frame to buf
//
// Frame Structure:
//
//	[0-3]   size           len(frame type) + len(payload), BE uint32
//	[4-7]   frame type     BE int32
//	[8+]    payload
//
// Clients never send frames; this exists for fixtures, tests and tools that
// stand in for nsqd.
func AppendFrame(buf *bytes.Buffer, frameType FrameType, payload []byte) {
	buf.Grow(HeaderLength + len(payload))

	var header [HeaderLength]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(FrameTypeLength+len(payload)))
	binary.BigEndian.PutUint32(header[4:8], uint32(frameType))
	buf.Write(header[:])
	buf.Write(payload)
}

// AppendResponseFrame writes a response frame carrying text
func AppendResponseFrame(buf *bytes.Buffer, text string) {
	AppendFrame(buf, FrameTypeResponse, []byte(text))
}

// AppendHeartbeatFrame writes the heartbeat response frame
func AppendHeartbeatFrame(buf *bytes.Buffer) {
	AppendResponseFrame(buf, HeartbeatText)
}

// AppendErrorFrame writes an error frame carrying text
func AppendErrorFrame(buf *bytes.Buffer, text string) {
	AppendFrame(buf, FrameTypeError, []byte(text))
}

// AppendMessageFrame writes a message frame
//
// Payload Structure:
//
//	[0-7]   timestamp      nanoseconds since epoch, BE uint64
//	[8-9]   attempts       BE uint16
//	[10-25] message id     16 ASCII bytes
//	[26+]   body           opaque
func AppendMessageFrame(buf *bytes.Buffer, msg Message) {
	payload := make([]byte, MessageHeaderLength+len(msg.Body))
	binary.BigEndian.PutUint64(payload[0:8], msg.Timestamp)
	binary.BigEndian.PutUint16(payload[8:10], msg.Attempts)
	copy(payload[10:26], msg.ID[:])
	copy(payload[26:], msg.Body)
	AppendFrame(buf, FrameTypeMessage, payload)
}
