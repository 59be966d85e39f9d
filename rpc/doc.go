// Package rpc provides the network layer of rKV. Clients and servers exchange RESP
// (Redis serialization protocol) values over stream sockets.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the command translation, configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets).
//
//   - client: RPC client implementing the store interface, allowing applications to
//     use a remote server transparently.
//
//   - server: The command dispatcher and the server binding it to a transport and a store.
package rpc
