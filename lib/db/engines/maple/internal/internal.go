package internal

import (
	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Entry Type (value with metadata)
// --------------------------------------------------------------------------

// Entry stores a value with its ttl metadata.
// Entries are immutable once stored, a write always replaces the whole entry.
type Entry struct {
	Value     []byte // stored data, never handed out without a copy
	CreatedAt uint64 // wall-clock ms when the entry was written
	TTL       uint64 // lifetime in ms, only meaningful if HasTTL
	HasTTL    bool
}

// Status evaluates the entry at the given wall-clock time.
// An entry is expired once strictly more than TTL ms have elapsed. A clock that went
// backwards (now < CreatedAt) never expires an entry.
func (e Entry) Status(now uint64) db.Status {
	if !e.HasTTL || now < e.CreatedAt {
		return db.StatusFound
	}
	if now-e.CreatedAt > e.TTL {
		return db.StatusExpired
	}
	return db.StatusFound
}

// --------------------------------------------------------------------------
// Shard Type (partition of the database)
// --------------------------------------------------------------------------

// Shard represents a partition of the database
type Shard struct {
	Data *xsync.MapOf[string, Entry]
}

// NewShard creates a new empty shard
func NewShard() *Shard {
	return &Shard{
		Data: xsync.NewMapOf[string, Entry](),
	}
}

// GetShard returns the appropriate shard for a given key hash
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func GetShard[T any](hash uint64, shards []*T) *T {
	// Shift right by 7 bits to use higher-quality bits for distribution
	return shards[(hash>>7)%uint64(len(shards))]
}
