package resp

import (
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Type Tags
// --------------------------------------------------------------------------

// Type is the leading tag byte of a RESP value on the wire
type Type byte

const (
	TypeSimpleString Type = '+'
	TypeError        Type = '-'
	TypeInteger      Type = ':'
	TypeBulkString   Type = '$'
	TypeArray        Type = '*'
)

func (t Type) String() string {
	switch t {
	case TypeSimpleString:
		return "SimpleString"
	case TypeError:
		return "Error"
	case TypeInteger:
		return "Integer"
	case TypeBulkString:
		return "BulkString"
	case TypeArray:
		return "Array"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Value
// --------------------------------------------------------------------------

// Value is a single RESP value. Which fields are used depends on Type:
//
//   - SimpleString, Error: Str
//   - Integer: Int
//   - BulkString: Str, or Null for the null bulk string ($-1)
//   - Array: Array, or Null for the null array (*-1)
//
// An empty array (Array != nil, len 0) and a null array (Null) are different values.
type Value struct {
	Type  Type
	Str   string
	Int   int64
	Array []Value
	Null  bool
}

// SimpleString creates a status reply. s must not contain CR or LF.
func SimpleString(s string) Value {
	return Value{Type: TypeSimpleString, Str: s}
}

// Error creates an error reply. s must not contain CR or LF.
func Error(s string) Value {
	return Value{Type: TypeError, Str: s}
}

// Integer creates an integer value
func Integer(i int64) Value {
	return Value{Type: TypeInteger, Int: i}
}

// BulkString creates a binary safe string value
func BulkString(s string) Value {
	return Value{Type: TypeBulkString, Str: s}
}

// NullBulkString creates the absent bulk string ($-1)
func NullBulkString() Value {
	return Value{Type: TypeBulkString, Null: true}
}

// Array creates an array of the given items. Calling it without items creates an empty
// (not null) array.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Type: TypeArray, Array: items}
}

// NullArray creates the absent array (*-1)
func NullArray() Value {
	return Value{Type: TypeArray, Null: true}
}

// Command builds a request array of bulk strings, the shape clients send.
func Command(args ...string) Value {
	items := make([]Value, len(args))
	for i, arg := range args {
		items[i] = BulkString(arg)
	}
	return Array(items...)
}

// Text returns the payload of a string-like value (SimpleString or non-null BulkString).
// The boolean is false for every other value.
func (v Value) Text() (string, bool) {
	switch {
	case v.Type == TypeSimpleString:
		return v.Str, true
	case v.Type == TypeBulkString && !v.Null:
		return v.Str, true
	default:
		return "", false
	}
}

// IsError reports whether v is an error reply
func (v Value) IsError() bool {
	return v.Type == TypeError
}

// String renders the value the way redis-cli prints replies
func (v Value) String() string {
	var sb strings.Builder
	v.format(&sb, "")
	return sb.String()
}

func (v Value) format(sb *strings.Builder, indent string) {
	switch v.Type {
	case TypeSimpleString:
		sb.WriteString(v.Str)
	case TypeError:
		sb.WriteString("(error) ")
		sb.WriteString(v.Str)
	case TypeInteger:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case TypeBulkString:
		if v.Null {
			sb.WriteString("(nil)")
			return
		}
		sb.WriteString(strconv.Quote(v.Str))
	case TypeArray:
		if v.Null {
			sb.WriteString("(nil)")
			return
		}
		if len(v.Array) == 0 {
			sb.WriteString("(empty array)")
			return
		}
		for i, item := range v.Array {
			if i > 0 {
				sb.WriteString("\n")
				sb.WriteString(indent)
			}
			prefix := strconv.Itoa(i+1) + ") "
			sb.WriteString(prefix)
			item.format(sb, indent+strings.Repeat(" ", len(prefix)))
		}
	default:
		sb.WriteString("(unknown)")
	}
}
