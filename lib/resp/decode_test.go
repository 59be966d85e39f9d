package resp

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleValues covers every variant, including nesting and null markers
func sampleValues() map[string]Value {
	return map[string]Value{
		"simple string":      SimpleString("OK"),
		"empty simple":       SimpleString(""),
		"error":              Error("key not found"),
		"integer":            Integer(42),
		"negative integer":   Integer(-9223372036854775808),
		"bulk string":        BulkString("hello"),
		"empty bulk":         BulkString(""),
		"null bulk":          NullBulkString(),
		"binary bulk":        BulkString("a\r\nb\x00\r\n\n\rc"),
		"utf8 bulk":          BulkString("grüße, 世界"),
		"empty array":        Array(),
		"null array":         NullArray(),
		"request":            Command("SET", "key", "value", "PX", "100"),
		"nested":             Array(Integer(1), Array(SimpleString("a"), NullBulkString()), Array(), NullArray()),
		"deeply nested":      Array(Array(Array(Array(BulkString("deep"))))),
		"mixed":              Array(SimpleString("x"), Error("e"), Integer(0), BulkString("\r\n")),
		"array of empty arr": Array(Array(), Array()),
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"simple string", SimpleString("PONG"), "+PONG\r\n"},
		{"error", Error("unknown command"), "-unknown command\r\n"},
		{"integer", Integer(-12), ":-12\r\n"},
		{"bulk string", BulkString("hello"), "$5\r\nhello\r\n"},
		{"empty bulk string", BulkString(""), "$0\r\n\r\n"},
		{"null bulk string", NullBulkString(), "$-1\r\n"},
		{"multi byte bulk string", BulkString("ü"), "$2\r\nü\r\n"},
		{"empty array", Array(), "*0\r\n"},
		{"null array", NullArray(), "*-1\r\n"},
		{"command", Command("GET", "k"), "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"},
		{"nested array", Array(Integer(1), Array(SimpleString("a"))), "*2\r\n:1\r\n*1\r\n+a\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Encode(tt.value)))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for name, v := range sampleValues() {
		t.Run(name, func(t *testing.T) {
			encoded := Encode(v)

			decoded, n, err := Decode(encoded, Limits{})
			require.NoError(t, err)
			assert.Equal(t, v, decoded)
			assert.Equal(t, len(encoded), n, "decode must consume exactly the encoded bytes")
		})
	}
}

func TestBinarySafeBulkString(t *testing.T) {
	payload := "\r\n$3\r\n*1\r\n\r\n"
	encoded := Encode(BulkString(payload))

	decoded, n, err := Decode(encoded, Limits{})
	require.NoError(t, err)
	assert.Equal(t, len(encoded), n)

	text, ok := decoded.Text()
	require.True(t, ok)
	assert.Equal(t, payload, text)
}

func TestDecodeIncompleteAtEverySplit(t *testing.T) {
	for name, v := range sampleValues() {
		t.Run(name, func(t *testing.T) {
			encoded := Encode(v)

			for split := 0; split < len(encoded); split++ {
				_, _, err := Decode(encoded[:split], Limits{})
				require.ErrorIs(t, err, ErrIncomplete, "split at %d of %q", split, encoded)

				dec := NewDecoder(Limits{})
				dec.Feed(encoded[:split])
				_, err = dec.Next()
				require.ErrorIs(t, err, ErrIncomplete)
				assert.Equal(t, split, dec.Buffered(), "incomplete decode must not consume")

				dec.Feed(encoded[split:])
				decoded, err := dec.Next()
				require.NoError(t, err)
				assert.Equal(t, v, decoded)
				assert.Equal(t, 0, dec.Buffered())
			}
		})
	}
}

func TestDecodeBackToBack(t *testing.T) {
	first := Command("SET", "k", "v")
	second := Command("GET", "k")

	buf := append(Encode(first), Encode(second)...)

	v, n, err := Decode(buf, Limits{})
	require.NoError(t, err)
	assert.Equal(t, first, v)
	assert.Equal(t, len(Encode(first)), n, "cursor must stop at the start of the next message")

	v, _, err = Decode(buf[n:], Limits{})
	require.NoError(t, err)
	assert.Equal(t, second, v)
}

func TestDecoderBackToBackWithTrailingPartial(t *testing.T) {
	dec := NewDecoder(Limits{})
	dec.Feed(Encode(Command("PING")))
	dec.Feed(Encode(Command("ECHO", "hello")))
	dec.Feed([]byte("*2\r\n$3\r\nGET"))

	v, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, Command("PING"), v)

	v, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, Command("ECHO", "hello"), v)

	_, err = dec.Next()
	require.ErrorIs(t, err, ErrIncomplete)

	dec.Feed([]byte("\r\n$1\r\nk\r\n"))
	v, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, Command("GET", "k"), v)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unknown type tag", "?foo\r\n", ErrUnknownTypeTag},
		{"inline command", "PING\r\n", ErrUnknownTypeTag},
		{"invalid integer", ":12a\r\n", ErrInvalidInteger},
		{"empty integer", ":\r\n", ErrInvalidInteger},
		{"invalid bulk length", "$abc\r\nxyz\r\n", ErrInvalidLength},
		{"bulk length below -1", "$-2\r\n", ErrInvalidLength},
		{"array length below -1", "*-5\r\n", ErrInvalidLength},
		{"invalid array length", "*x\r\n", ErrInvalidLength},
		{"bulk without trailing CRLF", "$3\r\nabcde\r\n", ErrMissingCRLF},
		{"bulk with CR but no LF", "$3\r\nabc\rx", ErrMissingCRLF},
		{"CR without LF in line", "+OK\rX\n", ErrMissingCRLF},
		{"bare LF in line", "+OK\n", ErrMissingCRLF},
		{"error in nested element", "*2\r\n$1\r\na\r\n?\r\n", ErrUnknownTypeTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.input), Limits{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrProtocol)
			assert.False(t, errors.Is(err, ErrIncomplete))
		})
	}
}

func TestDecodeLimits(t *testing.T) {
	limits := Limits{MaxBulkLen: 8, MaxArrayLen: 4, MaxDepth: 3, MaxLineLen: 16}

	t.Run("bulk length rejected before payload arrives", func(t *testing.T) {
		_, _, err := Decode([]byte("$9\r\n"), limits)
		assert.ErrorIs(t, err, ErrLimitExceeded)
	})

	t.Run("bulk within limit", func(t *testing.T) {
		v, _, err := Decode(Encode(BulkString("12345678")), limits)
		require.NoError(t, err)
		assert.Equal(t, BulkString("12345678"), v)
	})

	t.Run("array length", func(t *testing.T) {
		_, _, err := Decode([]byte("*5\r\n"), limits)
		assert.ErrorIs(t, err, ErrLimitExceeded)
	})

	t.Run("line without CRLF", func(t *testing.T) {
		_, _, err := Decode([]byte("+"+strings.Repeat("a", 17)), limits)
		assert.ErrorIs(t, err, ErrLimitExceeded)
	})

	t.Run("short line is only incomplete", func(t *testing.T) {
		_, _, err := Decode([]byte("+"+strings.Repeat("a", 10)), limits)
		assert.ErrorIs(t, err, ErrIncomplete)
	})

	t.Run("nesting at the limit", func(t *testing.T) {
		_, _, err := Decode(Encode(Array(Array(Array(Integer(1))))), limits)
		assert.NoError(t, err)
	})

	t.Run("nesting beyond the limit", func(t *testing.T) {
		_, _, err := Decode(Encode(Array(Array(Array(Array(Integer(1)))))), limits)
		assert.ErrorIs(t, err, ErrMaxDepth)
	})

	t.Run("default depth bounds adversarial input", func(t *testing.T) {
		_, _, err := Decode([]byte(strings.Repeat("*1\r\n", 10_000)), Limits{})
		assert.ErrorIs(t, err, ErrMaxDepth)
	})
}

func TestDecoderReset(t *testing.T) {
	dec := NewDecoder(Limits{})
	dec.Feed([]byte("$10\r\nabc"))

	_, err := dec.Next()
	require.ErrorIs(t, err, ErrIncomplete)

	dec.Reset()
	assert.Equal(t, 0, dec.Buffered())

	dec.Feed(Encode(SimpleString("OK")))
	v, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, SimpleString("OK"), v)
}

func TestDecoderEmpty(t *testing.T) {
	_, err := NewDecoder(Limits{}).Next()
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestDecoderLargeArrayInChunks(t *testing.T) {
	const chunk = 4096

	args := make([]string, 100_000)
	for i := range args {
		args[i] = "abc"
	}
	want := Command(args...)
	raw := Encode(want)

	dec := NewDecoder(Limits{})
	var got Value
	for off := 0; off < len(raw); off += chunk {
		dec.Feed(raw[off:min(off+chunk, len(raw))])
		v, err := dec.Next()
		if errors.Is(err, ErrIncomplete) {
			continue
		}
		require.NoError(t, err)
		got = v
	}

	assert.Equal(t, want, got)
	assert.Equal(t, 0, dec.Buffered())

	// each chunk may cut one element, whose header is parsed a second time
	chunks := (len(raw) + chunk - 1) / chunk
	assert.LessOrEqual(t, dec.decoded, len(raw)+chunks*16)
}

func TestDecoderNestedByteByByte(t *testing.T) {
	want := Array(
		Array(Integer(1), BulkString("x"), Array()),
		NullArray(),
		Array(Array(SimpleString("deep"))),
		NullBulkString(),
		Error("err"),
	)
	next := Command("PING")
	raw := append(Encode(want), Encode(next)...)

	dec := NewDecoder(Limits{})
	var got []Value
	for i := range raw {
		dec.Feed(raw[i : i+1])
		v, err := dec.Next()
		if errors.Is(err, ErrIncomplete) {
			continue
		}
		require.NoError(t, err)
		got = append(got, v)
	}

	require.Len(t, got, 2)
	assert.Equal(t, want, got[0])
	assert.Equal(t, next, got[1])
	assert.Equal(t, 0, dec.Buffered())
}

func TestDecoderResumedDepthLimit(t *testing.T) {
	dec := NewDecoder(Limits{MaxDepth: 2})
	for _, part := range []string{"*1\r\n", "*1\r\n"} {
		dec.Feed([]byte(part))
		_, err := dec.Next()
		require.ErrorIs(t, err, ErrIncomplete)
	}

	dec.Feed([]byte("*1\r\n"))
	_, err := dec.Next()
	assert.ErrorIs(t, err, ErrMaxDepth)
}

func TestDecoderReleasesLargeBuffer(t *testing.T) {
	dec := NewDecoder(Limits{})

	dec.Feed(Encode(BulkString(strings.Repeat("x", 1<<20))))
	_, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, cap(dec.buf), "drained oversized buffer must be dropped")

	// small buffers are reused
	dec.Feed(Encode(Command("PING")))
	_, err = dec.Next()
	require.NoError(t, err)
	assert.Greater(t, cap(dec.buf), 0)
	assert.Equal(t, 0, dec.Buffered())

	// Reset drops an oversized partial value as well
	dec.Feed([]byte("$2000000\r\n"))
	dec.Feed(make([]byte, 1<<20))
	_, err = dec.Next()
	require.ErrorIs(t, err, ErrIncomplete)
	dec.Reset()
	assert.Equal(t, 0, cap(dec.buf))
}

func TestDecoderCompactsAfterConsume(t *testing.T) {
	dec := NewDecoder(Limits{})
	first := Encode(Command("SET", "k", "v"))
	second := Encode(Command("GET", "k"))

	// the first value and half of the second arrive together
	dec.Feed(append(first, second[:5]...))
	v, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, Command("SET", "k", "v"), v)
	assert.Equal(t, 5, dec.Buffered())

	_, err = dec.Next()
	require.ErrorIs(t, err, ErrIncomplete)

	dec.Feed(second[5:])
	v, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, Command("GET", "k"), v)
	assert.Equal(t, 0, dec.Buffered())
}
