// Package cmd implements the command-line interface for the rKV key-value server.
// It provides a hierarchical command structure with operations for running the
// server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Client commands (ping, echo, set, get, raw) and a load generator (perf)
//   - serve: Command for starting and configuring the rKV server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set via an environment variable RKV_<FLAG>, dashes replaced by
// underscores (e.g. RKV_TRANSPORT_ENDPOINTS=localhost:6379). Variables are also read from
// .env and .env.local in the working directory.
//
// See rkv -help for a list of all commands.
package cmd
