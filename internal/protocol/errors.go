package protocol

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of a codec failure.
type ErrorKind int

const (
	// KindInvalidEncoding indicates non-UTF8 bytes where the protocol requires text
	KindInvalidEncoding ErrorKind = iota + 1
	// KindUnknownFrameType indicates a frame type outside response/error/message
	KindUnknownFrameType
	// KindMalformedFrame indicates a header or size inconsistency
	KindMalformedFrame
	// KindRemote indicates the server rejected a command
	KindRemote
	// KindTransport indicates an error from the underlying byte stream
	KindTransport
	// KindUnexpected indicates misuse of the API, such as encoding a decoded value
	KindUnexpected
	// KindInvalidCommand indicates a command builder rejected its arguments
	KindInvalidCommand
	// KindEndOfStream indicates the stream ended in the middle of a frame
	KindEndOfStream
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidEncoding:
		return "invalid encoding"
	case KindUnknownFrameType:
		return "unknown frame type"
	case KindMalformedFrame:
		return "malformed frame"
	case KindRemote:
		return "remote error"
	case KindTransport:
		return "transport error"
	case KindUnexpected:
		return "unexpected"
	case KindInvalidCommand:
		return "invalid command"
	case KindEndOfStream:
		return "end of stream"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Fatal reports whether an error of this kind leaves the byte stream
// desynchronized. The owning connection must be closed and re-established.
func (k ErrorKind) Fatal() bool {
	switch k {
	case KindInvalidEncoding, KindUnknownFrameType, KindMalformedFrame, KindTransport, KindEndOfStream:
		return true
	default:
		return false
	}
}

// Error is the error type returned by every codec operation.
type Error struct {
	Kind      ErrorKind // Category of failure
	Message   string    // Human-readable detail
	FrameType int32     // Frame type from the header, when one was read
	Err       error     // Underlying error (transport failures)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message == "" && e.Err == nil {
		return "nsq: " + e.Kind.String()
	}
	if e.Err != nil {
		if e.Message == "" {
			return fmt.Sprintf("nsq: %s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("nsq: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("nsq: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinel values below
// work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidEncoding  = &Error{Kind: KindInvalidEncoding}
	ErrUnknownFrameType = &Error{Kind: KindUnknownFrameType}
	ErrMalformedFrame   = &Error{Kind: KindMalformedFrame}
	ErrRemote           = &Error{Kind: KindRemote}
	ErrTransport        = &Error{Kind: KindTransport}
	ErrUnexpected       = &Error{Kind: KindUnexpected}
	ErrInvalidCommand   = &Error{Kind: KindInvalidCommand}
	ErrEndOfStream      = &Error{Kind: KindEndOfStream}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewRemoteError creates the error form of a server-reported failure
func NewRemoteError(text string) *Error {
	return &Error{Kind: KindRemote, Message: text, FrameType: int32(FrameTypeError)}
}

// NewTransportError wraps an error from the underlying stream
func NewTransportError(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}

// KindOf returns the kind of a codec error, or 0 if err is not one
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsFatal checks if an error desynchronizes the connection
func IsFatal(err error) bool {
	return KindOf(err).Fatal()
}

// IsRemoteError checks if an error was reported by the server
func IsRemoteError(err error) bool {
	return KindOf(err) == KindRemote
}

// IsTransportError checks if an error came from the underlying stream
func IsTransportError(err error) bool {
	return KindOf(err) == KindTransport
}

// IsUnexpected checks if an error reports API misuse
func IsUnexpected(err error) bool {
	return KindOf(err) == KindUnexpected
}
