// Package common provides core data structures and utilities shared by the rKV server,
// client and command line tools.
//
// The package focuses on:
//   - The command translator between decoded RESP values and typed commands
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat's logger facade
//
// Key Components:
//
//   - Command: A validated request (PING, ECHO, SET, GET). ToCommand builds it from a
//     decoded RESP array, matching the command name case-insensitively and falling back
//     to the empty string for missing or non-string arguments. SET accepts an optional
//     "EX seconds" or "PX milliseconds" suffix. Anything else yields ErrUnknownCommand.
//     ToValue is the inverse used by clients.
//
//   - Response: The outcome of a command. FromResponse maps it onto the wire:
//     PONG and OK as simple strings, echoed messages and values as bulk strings, expired
//     keys as a null bulk string and errors as RESP errors.
//
//   - ServerConfig / ClientConfig: Configuration for the server and the client, including
//     transport, protocol limits, rate limiting and metrics.
//
//   - Logger: Custom logging implementation that plugs into dragonboat's logger package
//     and prints "LEVEL | package | message" lines.
package common
