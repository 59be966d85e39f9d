// Package tcp implements the TCP transport of rKV on top of the base package.
//
// Key Components:
//
//   - clientConnector: dials tcp endpoints ("host:port")
//
//   - serverConnector: listens on a tcp endpoint
//
// Both sides apply the configured socket buffer sizes, TCP_NODELAY, keep-alive and linger
// settings to every connection.
package tcp
