// Package maple implements an in-memory key-value database (KVDB) with wall-clock ttl
// support. It provides a complete implementation of the db.KVDB interface with a focus on
// thread safety and low contention.
//
// Key Components:
//
//   - mapleImpl: The central database structure implementing db.KVDB. It owns the shards
//     and provides the public API for key-value operations. It never reads a clock: the
//     caller passes the current wall-clock time in milliseconds into every operation.
//
//   - Shard: A partition of the database that manages a subset of the key space. Each shard
//     holds an xsync.MapOf keyed by the original string key, so distinct keys can never
//     collide. Keys are spread across shards using a seeded FNV-1a hash of the key, right
//     shifted by 7 bits to use higher-quality bits for distribution.
//
//   - Entry: The stored value with its creation time and optional ttl. Entries are
//     immutable. A write builds a new Entry and replaces the old one with a single Store,
//     so concurrent readers observe either the complete old or the complete new entry.
//
// Expiration:
//
//   - An entry with a ttl is expired once now - createdAt > ttl. A ttl of 0 therefore
//     expires as soon as the clock has advanced by one millisecond.
//   - If now < createdAt (the wall clock went backwards) the entry is treated as live.
//   - Expired entries are never removed by reads and there is no garbage collector. An
//     expired entry keeps reporting db.StatusExpired until it is overwritten, which also
//     means memory for expired keys is only reclaimed by overwriting them or by Close.
//
// Values are copied on the way in and on the way out, callers may reuse their buffers.
package maple
