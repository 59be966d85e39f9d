package common

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ValentinKolb/rKV/lib/resp"
)

// ErrUnknownCommand is returned by ToCommand for anything that is not a supported command
var ErrUnknownCommand = errors.New("unknown command")

// Error messages sent to clients
const (
	ErrMsgKeyNotFound     = "key not found"
	ErrMsgUnknownCommand  = "unknown command"
	ErrMsgProtocolError   = "protocol error"
	ErrMsgInternalFailure = "internal error"
)

// --------------------------------------------------------------------------
// Command Structure
// --------------------------------------------------------------------------

// CommandType identifies a supported command
type CommandType uint8

const (
	CmdPing CommandType = iota + 1
	CmdEcho
	CmdSet
	CmdGet
)

// String returns the wire name of the command
func (t CommandType) String() string {
	switch t {
	case CmdPing:
		return "PING"
	case CmdEcho:
		return "ECHO"
	case CmdSet:
		return "SET"
	case CmdGet:
		return "GET"
	default:
		return "UNKNOWN"
	}
}

// Command is a validated request. Which fields are used depends on the type.
type Command struct {
	Type CommandType

	Key   string // Used for: Set, Get
	Value []byte // Used for: Echo (message), Set

	// TTL in milliseconds, only valid if HasTTL is set (Set only)
	TTL    uint64
	HasTTL bool
}

// String returns a short description for logging, values are not included
func (c Command) String() string {
	switch c.Type {
	case CmdSet:
		if c.HasTTL {
			return fmt.Sprintf("SET %q (%d bytes, ttl %dms)", c.Key, len(c.Value), c.TTL)
		}
		return fmt.Sprintf("SET %q (%d bytes)", c.Key, len(c.Value))
	case CmdGet:
		return fmt.Sprintf("GET %q", c.Key)
	case CmdEcho:
		return fmt.Sprintf("ECHO (%d bytes)", len(c.Value))
	default:
		return c.Type.String()
	}
}

// ToValue encodes the command as the RESP array a client sends.
// A ttl is always sent with the PX option.
func (c Command) ToValue() resp.Value {
	switch c.Type {
	case CmdEcho:
		return resp.Command("ECHO", string(c.Value))
	case CmdSet:
		if c.HasTTL {
			return resp.Command("SET", c.Key, string(c.Value), "PX", strconv.FormatUint(c.TTL, 10))
		}
		return resp.Command("SET", c.Key, string(c.Value))
	case CmdGet:
		return resp.Command("GET", c.Key)
	default:
		return resp.Command("PING")
	}
}

// --------------------------------------------------------------------------
// Command Factory Functions
// --------------------------------------------------------------------------

// NewPing creates a new Ping command
func NewPing() Command { return Command{Type: CmdPing} }

// NewEcho creates a new Echo command
func NewEcho(msg []byte) Command { return Command{Type: CmdEcho, Value: msg} }

// NewGet creates a new Get command
func NewGet(key string) Command { return Command{Type: CmdGet, Key: key} }

// NewSet creates a new Set command without ttl
func NewSet(key string, value []byte) Command {
	return Command{Type: CmdSet, Key: key, Value: value}
}

// NewSetE creates a new Set command with a ttl in milliseconds
func NewSetE(key string, value []byte, ttl uint64) Command {
	return Command{Type: CmdSet, Key: key, Value: value, TTL: ttl, HasTTL: true}
}

// --------------------------------------------------------------------------
// Translation RESP -> Command
// --------------------------------------------------------------------------

// ToCommand converts a decoded value into a Command.
//
// The value must be a non-empty array whose first element is a string naming the command
// (case-insensitive). Missing or non-string arguments fall back to the empty string. For SET,
// a ttl is only taken from the form SET key value EX|PX n: EX counts seconds and PX
// milliseconds. An unknown option or an n that is not an unsigned integer yields a SET
// without ttl. Anything else returns ErrUnknownCommand.
func ToCommand(v resp.Value) (Command, error) {
	if v.Type != resp.TypeArray || v.Null || len(v.Array) == 0 {
		return Command{}, ErrUnknownCommand
	}

	name, ok := v.Array[0].Text()
	if !ok {
		return Command{}, ErrUnknownCommand
	}

	args := v.Array[1:]
	switch strings.ToUpper(name) {
	case "PING":
		return NewPing(), nil
	case "ECHO":
		return NewEcho([]byte(textAt(args, 0))), nil
	case "GET":
		return NewGet(textAt(args, 0)), nil
	case "SET":
		key, value := textAt(args, 0), []byte(textAt(args, 1))
		if len(args) >= 4 {
			if ttl, ok := parseTTL(textAt(args, 2), textAt(args, 3)); ok {
				return NewSetE(key, value, ttl), nil
			}
		}
		return NewSet(key, value), nil
	default:
		return Command{}, ErrUnknownCommand
	}
}

// textAt returns the text of args[i] or "" if it is missing or not a string
func textAt(args []resp.Value, i int) string {
	if i >= len(args) {
		return ""
	}
	s, _ := args[i].Text()
	return s
}

// parseTTL converts a SET expiry option into milliseconds
func parseTTL(option, amount string) (uint64, bool) {
	n, err := strconv.ParseUint(amount, 10, 64)
	if err != nil {
		return 0, false
	}

	switch strings.ToUpper(option) {
	case "PX":
		return n, true
	case "EX":
		if n > math.MaxUint64/1000 {
			return math.MaxUint64, true
		}
		return n * 1000, true
	default:
		return 0, false
	}
}

// --------------------------------------------------------------------------
// Response Structure
// --------------------------------------------------------------------------

// ResponseType identifies the kind of reply
type ResponseType uint8

const (
	RespPong ResponseType = iota + 1
	RespEcho
	RespOK
	RespValue
	RespNull
	RespError
)

// Response is the result of executing a Command
type Response struct {
	Type ResponseType
	Text string // Used for: Echo, Value, Error
}

// Pong creates a PING reply
func Pong() Response { return Response{Type: RespPong} }

// EchoReply creates an ECHO reply
func EchoReply(msg []byte) Response { return Response{Type: RespEcho, Text: string(msg)} }

// OK creates a SET reply
func OK() Response { return Response{Type: RespOK} }

// ValueReply creates a GET reply for a found key
func ValueReply(value []byte) Response { return Response{Type: RespValue, Text: string(value)} }

// Null creates a GET reply for an expired key
func Null() Response { return Response{Type: RespNull} }

// ErrorMsg creates an error reply
func ErrorMsg(msg string) Response { return Response{Type: RespError, Text: msg} }

// FromResponse converts a Response into the value written to the client.
// Echoed messages and values are bulk strings so arbitrary bytes survive.
func FromResponse(r Response) resp.Value {
	switch r.Type {
	case RespPong:
		return resp.SimpleString("PONG")
	case RespEcho, RespValue:
		return resp.BulkString(r.Text)
	case RespOK:
		return resp.SimpleString("OK")
	case RespNull:
		return resp.NullBulkString()
	default:
		return resp.Error(r.Text)
	}
}
