// Package protocol implements the NSQ V2 client wire format.
//
// This package turns the byte stream a client receives from nsqd into typed
// values, and turns typed commands into the exact bytes nsqd expects. It does
// no I/O of its own; the Reader and Writer helpers adapt it to io.Reader and
// io.Writer.
//
// # Server Frames
//
// Every frame from the server has this structure:
//
//	[0-3]   size           BE uint32, len(frame type) + len(payload)
//	[4-7]   frame type     BE int32: 0 response, 1 error, 2 message
//	[8+]    payload
//
// A response payload of "_heartbeat_" is a heartbeat, which the client must
// answer with NOP. Error payloads are returned as RemoteError values rather
// than Go errors. Message payloads carry a timestamp, an attempt count, a
// 16-byte id and an opaque body.
//
// # Client Commands
//
// Commands are a single text line terminated by '\n', optionally followed by
// one length-prefixed payload (PUB, DPUB, IDENTIFY, AUTH) or a counted list of
// them (MPUB). A client writes the 4-byte magic "  V2" once before its first
// command.
//
// # Usage Example - Decoding
//
//	var buf bytes.Buffer
//	buf.Write(received)
//	for {
//	    v, ok, err := protocol.Decode(&buf)
//	    if err != nil {
//	        return err // the connection is no longer in sync
//	    }
//	    if !ok {
//	        break // read more bytes
//	    }
//	    switch v := v.(type) {
//	    case protocol.Heartbeat:
//	        protocol.Encode(&out, protocol.Nop())
//	    case protocol.Message:
//	        fin, _ := protocol.Finish(v.ID)
//	        protocol.Encode(&out, fin)
//	    }
//	}
//
// # Usage Example - Encoding
//
//	var buf bytes.Buffer
//	protocol.AppendMagic(&buf)
//	protocol.Encode(&buf, protocol.Subscribe("events", "archive"))
//	rdy, _ := protocol.Ready(100)
//	protocol.Encode(&buf, rdy)
//
// # Error Handling
//
// All failures are *Error values with an ErrorKind. Use errors.Is against the
// sentinels (ErrMalformedFrame, ErrUnknownFrameType, ...) or the IsFatal
// helper to decide whether the connection must be dropped.
//
// # Thread Safety
//
// Decode, Encode and the command builders are pure and safe for concurrent
// use on distinct buffers. Reader and Writer are not safe for concurrent use.
package protocol
