package resp

import (
	"io"
	"strconv"
)

var crlf = []byte("\r\n")

// Encode returns the wire representation of v
func Encode(v Value) []byte {
	return AppendValue(nil, v)
}

// AppendValue appends the wire representation of v to dst and returns the extended buffer.
// Bulk string lengths are byte lengths, so any payload round-trips exactly.
func AppendValue(dst []byte, v Value) []byte {
	switch v.Type {
	case TypeSimpleString, TypeError:
		dst = append(dst, byte(v.Type))
		dst = append(dst, v.Str...)
		return append(dst, crlf...)

	case TypeInteger:
		dst = append(dst, byte(TypeInteger))
		dst = strconv.AppendInt(dst, v.Int, 10)
		return append(dst, crlf...)

	case TypeBulkString:
		if v.Null {
			return append(dst, "$-1\r\n"...)
		}
		dst = append(dst, byte(TypeBulkString))
		dst = strconv.AppendInt(dst, int64(len(v.Str)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, v.Str...)
		return append(dst, crlf...)

	case TypeArray:
		if v.Null {
			return append(dst, "*-1\r\n"...)
		}
		dst = append(dst, byte(TypeArray))
		dst = strconv.AppendInt(dst, int64(len(v.Array)), 10)
		dst = append(dst, crlf...)
		for _, item := range v.Array {
			dst = AppendValue(dst, item)
		}
		return dst

	default:
		// the zero Value has no tag, encode it as the null bulk string
		return append(dst, "$-1\r\n"...)
	}
}

// Write encodes v and writes it to w in a single call
func Write(w io.Writer, v Value) error {
	_, err := w.Write(Encode(v))
	return err
}
