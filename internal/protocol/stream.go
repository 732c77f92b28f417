package protocol

import (
	"bytes"
	"errors"
	"io"

	"github.com/muurk/nsqwire/internal/logging"
)

// DefaultReadSize is the chunk size Reader requests from its source
const DefaultReadSize = 4096

// Observer receives codec events. Implementations must not retain the
// values past the call.
type Observer interface {
	FrameDecoded(v Value, n int)
	FrameEncoded(v Value, n int)
	DecodeFailed(err error)
}

type nopObserver struct{}

func (nopObserver) FrameDecoded(Value, int) {}
func (nopObserver) FrameEncoded(Value, int) {}
func (nopObserver) DecodeFailed(error)      {}

// options holds the configuration shared by Reader and Writer
type options struct {
	decoder  *Decoder
	readSize int
	observer Observer
}

// Option configures a Reader or Writer
type Option func(*options)

// WithDecoder sets the decoder used by a Reader, for example to change
// the frame size limit
func WithDecoder(d *Decoder) Option {
	return func(o *options) {
		o.decoder = d
	}
}

// WithReadSize sets how many bytes a Reader requests per read
func WithReadSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readSize = n
		}
	}
}

// WithObserver attaches an Observer
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		decoder:  DefaultDecoder,
		readSize: DefaultReadSize,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Reader decodes server frames from a byte stream.
// It is not safe for concurrent use.
type Reader struct {
	src  io.Reader
	buf  bytes.Buffer
	opts options
	err  error
}

// NewReader creates a Reader over src
func NewReader(src io.Reader, opts ...Option) *Reader {
	return &Reader{src: src, opts: newOptions(opts)}
}

// Next returns the next frame from the stream.
//
// It returns io.EOF when the stream ends on a frame boundary. A stream that
// ends inside a frame yields KindEndOfStream, and any other read failure
// yields KindTransport wrapping the cause. Errors are sticky: later calls
// return the same error. Error frames from the server are values
// (RemoteError), not errors.
func (r *Reader) Next() (Value, error) {
	if r.err != nil {
		return nil, r.err
	}

	for {
		before := r.buf.Len()
		v, ok, err := r.opts.decoder.Decode(&r.buf)
		if err != nil {
			logging.LogDecodeError(err, r.buf.Bytes())
			r.opts.observer.DecodeFailed(err)
			r.err = err
			return nil, err
		}
		if ok {
			n := before - r.buf.Len()
			logging.LogFrame("recv", v, n)
			r.opts.observer.FrameDecoded(v, n)
			return v, nil
		}

		if err := r.fill(); err != nil {
			r.err = err
			return nil, err
		}
	}
}

// fill reads one chunk from the source into the buffer
func (r *Reader) fill() error {
	r.buf.Grow(r.opts.readSize)
	chunk := r.buf.AvailableBuffer()[:r.opts.readSize]
	n, err := r.src.Read(chunk)
	if n > 0 {
		r.buf.Write(chunk[:n])
		return nil
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		if r.buf.Len() == 0 {
			return io.EOF
		}
		return newError(KindEndOfStream, "stream ended with %d bytes of an incomplete frame", r.buf.Len())
	default:
		return NewTransportError(err)
	}
}

// Buffered returns the number of bytes read from the source but not yet
// decoded
func (r *Reader) Buffered() int {
	return r.buf.Len()
}

// Writer encodes commands onto a byte stream.
// It is not safe for concurrent use.
type Writer struct {
	dst  io.Writer
	buf  bytes.Buffer
	opts options
}

// NewWriter creates a Writer over dst
func NewWriter(dst io.Writer, opts ...Option) *Writer {
	return &Writer{dst: dst, opts: newOptions(opts)}
}

// WriteMagic writes the protocol preamble
func (w *Writer) WriteMagic() error {
	w.buf.Reset()
	AppendMagic(&w.buf)
	logging.LogRawBytes("send magic", w.buf.Bytes())
	return w.flush()
}

// Send encodes v and writes it in a single Write call
func (w *Writer) Send(v Value) error {
	w.buf.Reset()
	if err := Encode(&w.buf, v); err != nil {
		return err
	}
	n := w.buf.Len()
	if err := w.flush(); err != nil {
		return err
	}
	logging.LogFrame("send", v, n)
	w.opts.observer.FrameEncoded(v, n)
	return nil
}

func (w *Writer) flush() error {
	if _, err := w.dst.Write(w.buf.Bytes()); err != nil {
		return NewTransportError(err)
	}
	w.buf.Reset()
	return nil
}
