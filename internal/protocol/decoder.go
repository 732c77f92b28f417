package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// Decoder decodes server frames from an accumulating byte buffer
type Decoder struct {
	// MaxFrameSize bounds the declared size field. Zero means DefaultMaxFrameSize.
	MaxFrameSize uint32
}

// DefaultDecoder is used by the package-level Decode
var DefaultDecoder = &Decoder{MaxFrameSize: DefaultMaxFrameSize}

// Decode decodes at most one frame from buf using DefaultDecoder
func Decode(buf *bytes.Buffer) (Value, bool, error) {
	return DefaultDecoder.Decode(buf)
}

func (d *Decoder) maxFrameSize() uint32 {
	if d == nil || d.MaxFrameSize == 0 {
		return DefaultMaxFrameSize
	}
	return d.MaxFrameSize
}

// Decode attempts to extract one complete frame from the front of buf.
//
// Outcomes:
//
//	(v, true, nil)     a frame was decoded; exactly 4+size bytes were consumed
//	(nil, false, nil)  more bytes are needed; nothing was consumed
//	(nil, false, err)  protocol error; the connection should be dropped
//
// Bytes following the frame are left in buf untouched. Call Decode in a loop
// until it reports pending to drain every complete frame.
//
// Errors detected in the header (size below 4 or above MaxFrameSize) consume
// nothing. Errors detected after the whole frame is buffered consume exactly
// that frame.
func (d *Decoder) Decode(buf *bytes.Buffer) (Value, bool, error) {
	data := buf.Bytes()
	if len(data) < HeaderLength {
		return nil, false, nil
	}

	size := binary.BigEndian.Uint32(data[0:4])
	if size < FrameTypeLength {
		return nil, false, newError(KindMalformedFrame, "frame size %d is smaller than the frame type field", size)
	}
	if limit := d.maxFrameSize(); size > limit {
		return nil, false, newError(KindMalformedFrame, "frame size %d exceeds limit %d", size, limit)
	}

	total := SizeLength + int(size)
	if len(data) < total {
		return nil, false, nil
	}

	frameType := FrameType(int32(binary.BigEndian.Uint32(data[4:8])))
	payload := data[HeaderLength:total]

	v, err := decodePayload(frameType, payload)
	buf.Next(total)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// decodePayload interprets a frame payload. payload aliases the buffer, so
// anything retained must be copied out before the buffer advances.
func decodePayload(frameType FrameType, payload []byte) (Value, error) {
	switch frameType {
	case FrameTypeResponse:
		if !utf8.Valid(payload) {
			return nil, &Error{Kind: KindInvalidEncoding, Message: "response payload is not valid UTF-8", FrameType: int32(frameType)}
		}
		text := string(payload)
		if text == HeartbeatText {
			return Heartbeat{}, nil
		}
		return Response{Text: text}, nil

	case FrameTypeError:
		if !utf8.Valid(payload) {
			return nil, &Error{Kind: KindInvalidEncoding, Message: "error payload is not valid UTF-8", FrameType: int32(frameType)}
		}
		return RemoteError{Text: string(payload)}, nil

	case FrameTypeMessage:
		return decodeMessage(payload)

	default:
		return nil, &Error{
			Kind:      KindUnknownFrameType,
			Message:   "frame type " + frameType.String(),
			FrameType: int32(frameType),
		}
	}
}

func decodeMessage(payload []byte) (Value, error) {
	if len(payload) < MessageHeaderLength {
		return nil, &Error{
			Kind:      KindMalformedFrame,
			Message:   fmt.Sprintf("message payload of %d bytes is shorter than the %d byte header", len(payload), MessageHeaderLength),
			FrameType: int32(FrameTypeMessage),
		}
	}

	msg := Message{
		Timestamp: binary.BigEndian.Uint64(payload[0:8]),
		Attempts:  binary.BigEndian.Uint16(payload[8:10]),
	}
	copy(msg.ID[:], payload[10:26])
	msg.Body = bytes.Clone(payload[26:])
	return msg, nil
}
