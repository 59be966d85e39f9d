// Package store provides a high-level interface for key-value storage operations
// with ttl support and unified error handling.
// It serves as an abstraction layer over the lower-level db.KVDB implementations, adding
// the current wall-clock time to every operation.
//
// Key Components:
//
//   - IStore Interface: The core abstraction for Set, SetE (set with ttl in milliseconds)
//     and Get. Get reports whether a key was found, is missing, or is expired. Both the
//     local store and the network client implement it, so callers can switch between an
//     embedded store and a remote rKV server without code changes.
//
//   - Error System: A structured error type with typed return codes. The network client
//     uses it to surface error replies of the server.
//
//   - DBFactory: A function type that abstracts the creation of the underlying db.KVDB.
//
// Implementations:
//
//   - Local Store (lstore): directly uses a db.KVDB instance and reads the wall clock at
//     call time. One instance is meant to be shared by all connections of a server.
//     Available in the "github.com/ValentinKolb/rKV/lib/store/lstore" package.
//
//   - Remote Store (rpc/client): speaks RESP to an rKV server.
package store
