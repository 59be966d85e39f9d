package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrIncomplete signals that the buffer ends before the value is fully framed.
	// It is not a protocol violation: the caller should supply more bytes and retry.
	ErrIncomplete = errors.New("resp: incomplete value")

	// ErrProtocol is wrapped by every framing error. After a framing error there is no
	// reliable point to resynchronize the stream.
	ErrProtocol = errors.New("resp: protocol error")

	ErrUnknownTypeTag = fmt.Errorf("%w: unknown type tag", ErrProtocol)
	ErrInvalidLength  = fmt.Errorf("%w: invalid length", ErrProtocol)
	ErrInvalidInteger = fmt.Errorf("%w: invalid integer", ErrProtocol)
	ErrMissingCRLF    = fmt.Errorf("%w: missing CRLF", ErrProtocol)
	ErrMaxDepth       = fmt.Errorf("%w: maximum nesting depth exceeded", ErrProtocol)
	ErrLimitExceeded  = fmt.Errorf("%w: limit exceeded", ErrProtocol)
)

// --------------------------------------------------------------------------
// Limits
// --------------------------------------------------------------------------

// Default protocol limits
const (
	DefaultMaxBulkLen  = 512 * 1024 * 1024 // 512 MiB
	DefaultMaxArrayLen = 1024 * 1024
	DefaultMaxDepth    = 32
	DefaultMaxLineLen  = 64 * 1024
)

// Limits bounds what the decoder accepts. A zero field means the default.
type Limits struct {
	MaxBulkLen  int64 // largest declared bulk string length
	MaxArrayLen int64 // largest declared array length
	MaxDepth    int   // deepest array nesting
	MaxLineLen  int   // longest line (simple string, error, integer, length header)
}

// DefaultLimits returns the default decoder limits
func DefaultLimits() Limits {
	return Limits{
		MaxBulkLen:  DefaultMaxBulkLen,
		MaxArrayLen: DefaultMaxArrayLen,
		MaxDepth:    DefaultMaxDepth,
		MaxLineLen:  DefaultMaxLineLen,
	}
}

func (l Limits) withDefaults() Limits {
	if l.MaxBulkLen <= 0 {
		l.MaxBulkLen = DefaultMaxBulkLen
	}
	if l.MaxArrayLen <= 0 {
		l.MaxArrayLen = DefaultMaxArrayLen
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxLineLen <= 0 {
		l.MaxLineLen = DefaultMaxLineLen
	}
	return l
}

// --------------------------------------------------------------------------
// Decode
// --------------------------------------------------------------------------

// Decode decodes exactly one value from the start of buf and returns it together with the
// number of bytes it occupied. Bytes after the value are never inspected, so a buffer
// holding several messages can be decoded one message at a time.
//
// If buf ends before the value is complete, ErrIncomplete is returned. Every other error
// wraps ErrProtocol.
func Decode(buf []byte, limits Limits) (Value, int, error) {
	p := parser{buf: buf, limits: limits.withDefaults()}
	v, err := p.value(0)
	if err != nil {
		return Value{}, 0, err
	}
	return v, p.pos, nil
}

// parser is a cursor over an in-memory buffer. On ErrIncomplete, need holds the smallest
// buffer length that could possibly make progress.
type parser struct {
	buf    []byte
	pos    int
	need   int
	limits Limits
}

func (p *parser) incomplete(need int) error {
	p.need = need
	return ErrIncomplete
}

func (p *parser) value(depth int) (Value, error) {
	v, n, err := p.head(depth)
	if err != nil || n == 0 {
		return v, err
	}

	// the declared length is untrusted, grow on demand beyond a small capacity
	items := make([]Value, 0, min(int(n), 16))
	for i := int64(0); i < n; i++ {
		item, err := p.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
	return Array(items...), nil
}

// head decodes one element at the cursor. For a non-empty array only the header is read
// and the number of items that follow is returned, every other element is returned whole
// with a count of 0.
func (p *parser) head(depth int) (Value, int64, error) {
	if p.pos >= len(p.buf) {
		return Value{}, 0, p.incomplete(p.pos + 1)
	}

	tag := Type(p.buf[p.pos])
	switch tag {
	case TypeSimpleString, TypeError, TypeInteger, TypeBulkString, TypeArray:
	default:
		return Value{}, 0, fmt.Errorf("%w %q", ErrUnknownTypeTag, p.buf[p.pos])
	}
	p.pos++

	line, err := p.line()
	if err != nil {
		return Value{}, 0, err
	}

	switch tag {
	case TypeSimpleString:
		return SimpleString(string(line)), 0, nil

	case TypeError:
		return Error(string(line)), 0, nil

	case TypeInteger:
		i, err := strconv.ParseInt(string(line), 10, 64)
		if err != nil {
			return Value{}, 0, fmt.Errorf("%w %q", ErrInvalidInteger, line)
		}
		return Integer(i), 0, nil

	case TypeBulkString:
		n, err := parseLength(line)
		if err != nil {
			return Value{}, 0, err
		}
		if n == -1 {
			return NullBulkString(), 0, nil
		}
		if n > p.limits.MaxBulkLen {
			return Value{}, 0, fmt.Errorf("%w: bulk length %d > %d", ErrLimitExceeded, n, p.limits.MaxBulkLen)
		}
		v, err := p.bulk(int(n))
		return v, 0, err

	default: // TypeArray
		n, err := parseLength(line)
		if err != nil {
			return Value{}, 0, err
		}
		if n == -1 {
			return NullArray(), 0, nil
		}
		if n > p.limits.MaxArrayLen {
			return Value{}, 0, fmt.Errorf("%w: array length %d > %d", ErrLimitExceeded, n, p.limits.MaxArrayLen)
		}
		if depth >= p.limits.MaxDepth {
			return Value{}, 0, fmt.Errorf("%w (%d)", ErrMaxDepth, p.limits.MaxDepth)
		}
		if n == 0 {
			return Array(), 0, nil
		}
		return Value{}, n, nil
	}
}

// line reads up to the next CRLF and returns the bytes before it.
// The payload of a line may contain neither CR nor LF.
func (p *parser) line() ([]byte, error) {
	rest := p.buf[p.pos:]
	idx := bytes.IndexAny(rest, "\r\n")

	if idx == -1 {
		if len(rest) > p.limits.MaxLineLen {
			return nil, fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, p.limits.MaxLineLen)
		}
		return nil, p.incomplete(len(p.buf) + 1)
	}
	if idx > p.limits.MaxLineLen {
		return nil, fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, p.limits.MaxLineLen)
	}
	if rest[idx] == '\n' {
		return nil, fmt.Errorf("%w: bare LF in line", ErrMissingCRLF)
	}
	if idx+1 >= len(rest) {
		return nil, p.incomplete(p.pos + idx + 2)
	}
	if rest[idx+1] != '\n' {
		return nil, fmt.Errorf("%w: CR not followed by LF", ErrMissingCRLF)
	}

	p.pos += idx + 2
	return rest[:idx], nil
}

// bulk reads n raw payload bytes followed by CRLF. The payload itself is not scanned.
func (p *parser) bulk(n int) (Value, error) {
	avail := len(p.buf) - p.pos
	end := p.pos + n

	if avail < n {
		return Value{}, p.incomplete(end + 2)
	}
	if avail > n && p.buf[end] != '\r' {
		return Value{}, fmt.Errorf("%w after bulk payload", ErrMissingCRLF)
	}
	if avail < n+2 {
		return Value{}, p.incomplete(end + 2)
	}
	if p.buf[end+1] != '\n' {
		return Value{}, fmt.Errorf("%w after bulk payload", ErrMissingCRLF)
	}

	v := BulkString(string(p.buf[p.pos:end]))
	p.pos = end + 2
	return v, nil
}

// parseLength parses the length header of a bulk string or array.
// -1 is the null marker; anything below is invalid.
func parseLength(line []byte) (int64, error) {
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalidLength, line)
	}
	if n < -1 {
		return 0, fmt.Errorf("%w %d", ErrInvalidLength, n)
	}
	return n, nil
}

// --------------------------------------------------------------------------
// Decoder
// --------------------------------------------------------------------------

// maxRetainedBuffer is the largest drained buffer a Decoder keeps for reuse
const maxRetainedBuffer = 64 * 1024

// frame is an array whose items are still being decoded
type frame struct {
	items     []Value
	remaining int64
}

// Decoder is a stateful cursor over bytes that arrive in chunks of arbitrary size.
// Feed appends bytes; Next decodes the next complete value or reports ErrIncomplete.
//
// Decoding resumes where the previous call stopped: completed items of open arrays are
// kept on a stack, so every byte of a value is parsed about once, however it is chunked.
// The raw bytes of a value stay buffered until the value is complete.
//
// Thread-safety: A Decoder must only be used by one goroutine at a time.
type Decoder struct {
	buf    []byte
	start  int     // first byte of the value being decoded
	pos    int     // first byte not decoded yet
	stack  []frame // open arrays of the value being decoded
	need   int     // buffer length required before another attempt can progress
	limits Limits

	// decoded counts the bytes the parser advanced over, bytes parsed again after
	// ErrIncomplete included
	decoded int
}

// NewDecoder creates a decoder with the given limits (zero fields use defaults)
func NewDecoder(limits Limits) *Decoder {
	return &Decoder{limits: limits.withDefaults()}
}

// Feed appends p to the internal buffer. p is copied.
func (d *Decoder) Feed(p []byte) {
	if d.start > 0 {
		n := copy(d.buf, d.buf[d.start:])
		d.buf = d.buf[:n]
		d.pos -= d.start
		d.need = max(0, d.need-d.start)
		d.start = 0
	}
	d.buf = append(d.buf, p...)
}

// Next decodes the next value. On success the value's bytes are consumed and the cursor
// sits at the start of the following message. On ErrIncomplete nothing is consumed.
// On any other error the buffer content is unusable; the caller should Reset or give up.
func (d *Decoder) Next() (Value, error) {
	if len(d.buf) < d.need {
		return Value{}, ErrIncomplete
	}

	p := parser{buf: d.buf, pos: d.pos, limits: d.limits}
	for {
		from := p.pos
		v, n, err := p.head(len(d.stack))
		d.decoded += p.pos - from
		if err != nil {
			if errors.Is(err, ErrIncomplete) {
				d.need = p.need
			}
			return Value{}, err
		}
		d.pos = p.pos

		if n > 0 {
			d.stack = append(d.stack, frame{items: make([]Value, 0, min(int(n), 16)), remaining: n})
			continue
		}

		if v, done := d.push(v); done {
			d.consume()
			return v, nil
		}
	}
}

// push adds a decoded element to the innermost open array and closes every array it
// completes. It reports whether the top level value is complete.
func (d *Decoder) push(v Value) (Value, bool) {
	for len(d.stack) > 0 {
		top := &d.stack[len(d.stack)-1]
		top.items = append(top.items, v)
		top.remaining--
		if top.remaining > 0 {
			return Value{}, false
		}
		v = Array(top.items...)
		d.stack = d.stack[:len(d.stack)-1]
	}
	return v, true
}

// Buffered returns the number of bytes fed but not yet consumed
func (d *Decoder) Buffered() int {
	return len(d.buf) - d.start
}

// Reset discards all buffered bytes
func (d *Decoder) Reset() {
	d.stack = nil
	d.release()
}

// consume drops the bytes of the value just decoded
func (d *Decoder) consume() {
	d.start = d.pos
	d.need = 0
	if d.start == len(d.buf) {
		d.release()
	}
}

// release empties the buffer. Oversized backing arrays are handed to the gc.
func (d *Decoder) release() {
	if cap(d.buf) > maxRetainedBuffer {
		d.buf = nil
	} else {
		d.buf = d.buf[:0]
	}
	d.start, d.pos, d.need = 0, 0, 0
}
