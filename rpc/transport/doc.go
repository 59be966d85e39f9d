// Package transport defines the interfaces for moving RESP values between rKV clients and
// servers. It provides a common contract that all stream transports fulfill.
//
// Key Components:
//
//   - IRPCServerTransport: Accepts connections and drives the registered handler for every
//     connection. The handler is a single step of the request state machine: it decodes
//     at most one request from the connection's decoder and returns the reply together
//     with a StepResult telling the transport whether to wait for more bytes, write the
//     reply, or write the reply and close the connection.
//
//   - IRPCClientTransport: Sends a request value and waits for exactly one reply value.
//
//   - ServerHandleFunc / StepResult: The contract between transport and dispatcher.
//
// Implementations live in the tcp and unix sub packages, both built on the base package.
package transport
