// Package unix implements a transport layer for rKV using Unix domain sockets. It provides
// low latency communication for processes running on the same machine.
//
// This package extends the base transport layer with Unix socket-specific connectors
// while inheriting connection handling, pooling and retries from the base package.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners, replacing a stale socket file
//
// The endpoint is the path of the socket file.
package unix
