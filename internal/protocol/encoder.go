package protocol

import (
	"bytes"
	"encoding/binary"
)

// Encode appends the wire form of a command value to buf.
//
// Wire Structure:
//
//	Command              <line>\n
//	CommandWithPayload   <line>\n [4-byte BE length][payload]
//	CommandWithPayloads  <line>\n [4-byte BE count] ([4-byte BE length][payload])...
//
// Decode-only values (Response, Heartbeat, RemoteError, Message) and nil
// return a KindUnexpected error with nothing written.
func Encode(buf *bytes.Buffer, v Value) error {
	n, err := EncodedLen(v)
	if err != nil {
		return err
	}
	buf.Grow(n)

	switch c := v.(type) {
	case Command:
		writeLine(buf, c.Line)
	case CommandWithPayload:
		writeLine(buf, c.Line)
		writePayload(buf, c.Payload)
	case CommandWithPayloads:
		writeLine(buf, c.Line)
		writeUint32(buf, uint32(len(c.Payloads)))
		for _, p := range c.Payloads {
			writePayload(buf, p)
		}
	}
	return nil
}

// EncodedLen returns the number of bytes Encode will write for v
func EncodedLen(v Value) (int, error) {
	switch c := v.(type) {
	case Command:
		return len(c.Line) + 1, nil
	case CommandWithPayload:
		return len(c.Line) + 1 + lengthPrefixLength + len(c.Payload), nil
	case CommandWithPayloads:
		n := len(c.Line) + 1 + lengthPrefixLength
		for _, p := range c.Payloads {
			n += lengthPrefixLength + len(p)
		}
		return n, nil
	case nil:
		return 0, newError(KindUnexpected, "cannot encode a nil value")
	default:
		return 0, newError(KindUnexpected, "cannot encode %s: only commands are sent by a client", v.Type())
	}
}

// AppendMagic writes the protocol preamble. It is sent once, before the first
// command, and carries no newline.
func AppendMagic(buf *bytes.Buffer) {
	buf.WriteString(MagicV2)
}

func writeLine(buf *bytes.Buffer, line string) {
	buf.WriteString(line)
	buf.WriteByte(commandTerminator)
}

func writePayload(buf *bytes.Buffer, p []byte) {
	writeUint32(buf, uint32(len(p)))
	buf.Write(p)
}

func writeUint32(buf *bytes.Buffer, n uint32) {
	var b [lengthPrefixLength]byte
	binary.BigEndian.PutUint32(b[:], n)
	buf.Write(b[:])
}
