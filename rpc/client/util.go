package client

import (
	"fmt"

	"github.com/ValentinKolb/rKV/lib/resp"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// invokeRPCRequest sends a request through the transport and returns the reply.
// An error reply of the server is returned as a *store.Error with RetCInvalidOperation.
func invokeRPCRequest(req resp.Value, transport transport.IRPCClientTransport) (resp.Value, error) {
	reply, err := transport.Send(req)
	if err != nil {
		return resp.Value{}, store.NewError(store.RetCInternalError, err.Error())
	}

	if reply.IsError() {
		return reply, store.NewError(store.RetCInvalidOperation, reply.Str)
	}
	return reply, nil
}

// unexpectedReply builds the error for a reply of the wrong type
func unexpectedReply(command string, reply resp.Value) error {
	return store.NewError(store.RetCInternalError, fmt.Sprintf("unexpected reply to %s: %s", command, reply))
}
