package transport

import (
	"net"

	"github.com/ValentinKolb/rKV/lib/resp"
	"github.com/ValentinKolb/rKV/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// StepResult tells the transport what to do after one handler cycle
type StepResult int

const (
	// StepNeedMore means the buffered bytes do not hold a complete request yet.
	// Nothing is written, the transport reads more bytes and calls the handler again.
	StepNeedMore StepResult = iota
	// StepReply means the returned value must be written and the connection stays open
	StepReply
	// StepReplyAndClose means the returned value must be written, then the connection is closed
	StepReplyAndClose
)

func (r StepResult) String() string {
	switch r {
	case StepNeedMore:
		return "NeedMore"
	case StepReply:
		return "Reply"
	case StepReplyAndClose:
		return "ReplyAndClose"
	default:
		return "Unknown"
	}
}

// ServerHandleFunc is a function type that handles incoming requests.
// It is called by a server transport with the decoder of a connection after new bytes were
// fed into it, and repeatedly as long as it returns a reply, so pipelined requests that
// arrived in a single read are all answered in order.
type ServerHandleFunc func(dec *resp.Decoder) (reply resp.Value, result StepResult)

// IRPCServerTransport is the interface for the RPC transport layer
// It must accept a ServerConfig as a parameter
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler is called for every connection whenever new bytes were read
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and blocks while serving connections.
	// It returns nil once Close was called.
	Listen(config common.ServerConfig) error
	// Addr returns the address the transport listens on, nil before Listen
	Addr() net.Addr
	// Connections returns the number of currently open connections
	Connections() int
	// Close stops accepting connections and closes all open ones
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and returns the reply
	Send(req resp.Value) (reply resp.Value, err error)
	// Close closes the transport connection
	Close() error
}
