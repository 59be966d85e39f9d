package client

import (
	"errors"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/resp"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
)

// IClient is a client for an rKV server. It implements store.IStore, so it can be used
// wherever a local store is expected.
type IClient interface {
	store.IStore

	// Ping checks that the server answers
	Ping() error
	// Echo returns the message echoed by the server
	Echo(msg []byte) ([]byte, error)
	// Do sends an arbitrary command and returns the raw reply.
	// Error replies are returned as value, not as error.
	Do(args ...string) (resp.Value, error)
	// Close closes all connections
	Close() error
}

// NewRPCClient creates a new client and connects the transport
func NewRPCClient(config common.ClientConfig, transport transport.IRPCClientTransport) (IClient, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcClient{
		config:    config,
		transport: transport,
	}, nil
}

type rpcClient struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (c *rpcClient) Set(key string, value []byte) error {
	return c.set(common.NewSet(key, value))
}

func (c *rpcClient) SetE(key string, value []byte, ttl uint64) error {
	return c.set(common.NewSetE(key, value, ttl))
}

func (c *rpcClient) set(cmd common.Command) error {
	reply, err := invokeRPCRequest(cmd.ToValue(), c.transport)
	if err != nil {
		return err
	}
	if reply.Type != resp.TypeSimpleString || reply.Str != "OK" {
		return unexpectedReply("SET", reply)
	}
	return nil
}

func (c *rpcClient) Get(key string) ([]byte, db.Status, error) {
	reply, err := invokeRPCRequest(common.NewGet(key).ToValue(), c.transport)
	if err != nil {
		var storeErr *store.Error
		if errors.As(err, &storeErr) && storeErr.Code == store.RetCInvalidOperation && storeErr.Msg == common.ErrMsgKeyNotFound {
			return nil, db.StatusNotFound, nil
		}
		return nil, db.StatusNotFound, err
	}

	if reply.Type != resp.TypeBulkString {
		return nil, db.StatusNotFound, unexpectedReply("GET", reply)
	}
	if reply.Null {
		return nil, db.StatusExpired, nil
	}
	return []byte(reply.Str), db.StatusFound, nil
}

// GetDBInfo is not part of the wire protocol
func (c *rpcClient) GetDBInfo() (db.DatabaseInfo, error) {
	return db.DatabaseInfo{}, store.NewError(store.RetCUnsupportedOperation, "GetDBInfo is not supported by the rpc client")
}

// --------------------------------------------------------------------------
// Client Methods
// --------------------------------------------------------------------------

func (c *rpcClient) Ping() error {
	reply, err := invokeRPCRequest(common.NewPing().ToValue(), c.transport)
	if err != nil {
		return err
	}
	if reply.Type != resp.TypeSimpleString || reply.Str != "PONG" {
		return unexpectedReply("PING", reply)
	}
	return nil
}

func (c *rpcClient) Echo(msg []byte) ([]byte, error) {
	reply, err := invokeRPCRequest(common.NewEcho(msg).ToValue(), c.transport)
	if err != nil {
		return nil, err
	}
	text, ok := reply.Text()
	if !ok {
		return nil, unexpectedReply("ECHO", reply)
	}
	return []byte(text), nil
}

func (c *rpcClient) Do(args ...string) (resp.Value, error) {
	reply, err := c.transport.Send(resp.Command(args...))
	if err != nil {
		return resp.Value{}, store.NewError(store.RetCInternalError, err.Error())
	}
	return reply, nil
}

func (c *rpcClient) Close() error {
	return c.transport.Close()
}
