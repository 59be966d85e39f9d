package server

import (
	"errors"
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/resp"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var dispatchLogger = logger.GetLogger("dispatcher")

// Dispatcher executes commands against a store. It holds no per connection state, a single
// Dispatcher serves every connection of a server.
type Dispatcher struct {
	store   store.IStore
	metrics *serverMetrics
}

// NewDispatcher creates a dispatcher for the given store
func NewDispatcher(s store.IStore) *Dispatcher {
	return &Dispatcher{store: s}
}

// Execute runs a validated command
func (d *Dispatcher) Execute(cmd common.Command) common.Response {
	switch cmd.Type {
	case common.CmdPing:
		return common.Pong()

	case common.CmdEcho:
		return common.EchoReply(cmd.Value)

	case common.CmdSet:
		var err error
		if cmd.HasTTL {
			err = d.store.SetE(cmd.Key, cmd.Value, cmd.TTL)
		} else {
			err = d.store.Set(cmd.Key, cmd.Value)
		}
		if err != nil {
			dispatchLogger.Errorf("SET %q failed: %v", cmd.Key, err)
			return common.ErrorMsg(common.ErrMsgInternalFailure)
		}
		return common.OK()

	case common.CmdGet:
		value, status, err := d.store.Get(cmd.Key)
		if err != nil {
			dispatchLogger.Errorf("GET %q failed: %v", cmd.Key, err)
			return common.ErrorMsg(common.ErrMsgInternalFailure)
		}
		switch status {
		case db.StatusFound:
			return common.ValueReply(value)
		case db.StatusExpired:
			return common.Null()
		default:
			return common.ErrorMsg(common.ErrMsgKeyNotFound)
		}

	default:
		return common.ErrorMsg(common.ErrMsgUnknownCommand)
	}
}

// Handle translates a decoded request, executes it and returns the reply value.
// Requests that are not a known command are answered with an error and never reach the store.
func (d *Dispatcher) Handle(req resp.Value) resp.Value {
	cmd, err := common.ToCommand(req)
	if err != nil {
		d.metrics.unknownCommand()
		dispatchLogger.Debugf("Rejected request: %v", err)
		return common.FromResponse(common.ErrorMsg(common.ErrMsgUnknownCommand))
	}

	start := time.Now()
	reply := common.FromResponse(d.Execute(cmd))
	d.metrics.commandDone(cmd.Type, start)

	dispatchLogger.Debugf("%s -> %s", cmd, reply.Type)
	return reply
}

// Step runs one request cycle on a connection's decoder: decode, translate, execute and
// encode. It is registered as the transport handler.
//
//   - the buffered bytes do not hold a complete request: StepNeedMore, no reply
//   - the bytes violate the framing rules: a protocol error reply and StepReplyAndClose,
//     since the stream cannot be resynchronized
//   - otherwise: the reply and StepReply
func (d *Dispatcher) Step(dec *resp.Decoder) (resp.Value, transport.StepResult) {
	req, err := dec.Next()
	if errors.Is(err, resp.ErrIncomplete) {
		return resp.Value{}, transport.StepNeedMore
	}
	if err != nil {
		d.metrics.protocolError()
		dispatchLogger.Warningf("Closing connection: %v", err)
		return common.FromResponse(common.ErrorMsg(common.ErrMsgProtocolError)), transport.StepReplyAndClose
	}

	return d.Handle(req), transport.StepReply
}
