// Package db provides the interface for key-value database engines used by rKV.
//
// The package focuses on:
//   - A small KVDB interface for writes with an optional ttl and reads that report
//     Found, NotFound or Expired
//   - Metadata reporting through DatabaseInfo
//
// Note on Time:
//   - Engines never read a clock. Every call carries "now" as wall-clock milliseconds,
//     captured by the caller at the time of the call. This keeps engines deterministic
//     and lets tests drive time explicitly.
//   - An entry written with a ttl is expired once now - createdAt > ttl. If the clock went
//     backwards (now < createdAt) the entry is treated as not expired.
//
// Note on Expired Entries:
//   - Reads never remove entries. An expired entry stays in the engine and reports
//     StatusExpired on every read until a write replaces it. There is no background sweeper.
package db
