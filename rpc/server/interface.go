package server

import "github.com/ValentinKolb/rKV/lib/store"

// IRPCServer is a RESP server bound to one shared store
type IRPCServer interface {
	// Serve starts the transport and blocks until the server is closed.
	// SIGINT and SIGTERM close the server.
	Serve() error
	// Close stops accepting connections, closes open ones and stops the metrics endpoint
	Close() error
	// Store returns the store shared by all connections
	Store() store.IStore
}
