package resp

import (
	"errors"
	"io"
)

const defaultReadSize = 4 * 1024

// Reader decodes values from a stream. It only blocks on the underlying reader when the
// buffered bytes do not yet hold a complete value.
type Reader struct {
	r     io.Reader
	dec   *Decoder
	chunk []byte
	err   error // sticky read error, returned once the buffer is drained
}

// NewReader creates a Reader with the default read size
func NewReader(r io.Reader, limits Limits) *Reader {
	return NewReaderSize(r, limits, defaultReadSize)
}

// NewReaderSize creates a Reader that reads at most size bytes per call to r.Read
func NewReaderSize(r io.Reader, limits Limits, size int) *Reader {
	if size <= 0 {
		size = defaultReadSize
	}
	return &Reader{
		r:     r,
		dec:   NewDecoder(limits),
		chunk: make([]byte, size),
	}
}

// ReadValue returns the next value from the stream.
//
// io.EOF is returned when the stream ends on a message boundary and io.ErrUnexpectedEOF
// when it ends inside a value. Framing errors wrap ErrProtocol.
func (r *Reader) ReadValue() (Value, error) {
	for {
		v, err := r.dec.Next()
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrIncomplete) {
			return Value{}, err
		}

		if r.err != nil {
			if errors.Is(r.err, io.EOF) && r.dec.Buffered() > 0 {
				return Value{}, io.ErrUnexpectedEOF
			}
			return Value{}, r.err
		}

		n, err := r.r.Read(r.chunk)
		if n > 0 {
			r.dec.Feed(r.chunk[:n])
		}
		if err != nil {
			r.err = err
		}
	}
}

// Buffered returns the number of bytes read from the stream but not yet decoded
func (r *Reader) Buffered() int {
	return r.dec.Buffered()
}
