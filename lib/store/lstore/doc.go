// Package lstore implements a local, in-memory, single-node key-value store based on the
// store.IStore interface. It is a thin wrapper around any db.KVDB implementation that
// stamps every operation with the current wall-clock time in milliseconds.
//
// Time:
//
//	The clock is read once at the start of every call, so the "now" used to evaluate a
//	ttl is the time of the request and not the time the entry was written. Tests inject a
//	simulated clock with WithClock instead of sleeping.
//
// Thread Safety:
//
//	All operations are thread-safe as long as the underlying db.KVDB is. A single store is
//	shared by every connection of a server, a value written on one connection is visible
//	to all others.
//
// Usage Example:
//
//	s := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
//	_ = s.SetE("session:123", sessionData, 300_000)
//	value, status, err := s.Get("session:123")
//
// Data is not persisted between process restarts.
package lstore
