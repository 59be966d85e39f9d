package maple

import (
	"runtime"
	"sync"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/db/engines/maple/internal"
	"github.com/ValentinKolb/rKV/lib/db/util"
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl implements an in-memory database with sharded data
type mapleImpl struct {
	numShards int               // Number of shards
	seed      uint64            // Seed for hash function
	shards    []*internal.Shard // Array of shards
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards int // Number of shards (0 = auto)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards: runtime.NumCPU(), // Auto-determine based on CPU count
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
func NewMapleDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}

	shards := make([]*internal.Shard, opts.NumShards)
	for i := range shards {
		shards[i] = internal.NewShard()
	}

	return &mapleImpl{
		numShards: opts.NumShards,
		seed:      util.GenerateSeed(),
		shards:    shards,
	}
}

// shardFor returns the shard owning key
func (maple *mapleImpl) shardFor(key string) *internal.Shard {
	return internal.GetShard(util.HashString(key, maple.seed), maple.shards)
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry without a ttl.
// Any previous entry, including its ttl, is replaced.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Set(key string, value []byte, now uint64) {
	maple.store(key, internal.Entry{
		Value:     copyBytes(value),
		CreatedAt: now,
	})
}

// SetE inserts or updates an entry that expires after ttl milliseconds.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetE(key string, value []byte, now uint64, ttl uint64) {
	maple.store(key, internal.Entry{
		Value:     copyBytes(value),
		CreatedAt: now,
		TTL:       ttl,
		HasTTL:    true,
	})
}

// store replaces the entry for key in a single atomic map operation, so readers see
// either the old or the new entry and never a mix of both.
func (maple *mapleImpl) store(key string, entry internal.Entry) {
	maple.shardFor(key).Data.Store(key, entry)
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves a value for a key and reports whether it was found, missing or expired.
// The returned value is a copy of the stored data and therefore safe to use and modify.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Get(key string, now uint64) ([]byte, db.Status) {
	entry, ok := maple.shardFor(key).Data.Load(key)
	if !ok {
		return nil, db.StatusNotFound
	}

	status := entry.Status(now)
	if status != db.StatusFound {
		return nil, status
	}
	return copyBytes(entry.Value), status
}

// Len returns the number of stored entries, expired ones included
func (maple *mapleImpl) Len() int {
	n := 0
	for _, shard := range maple.shards {
		n += shard.Data.Size()
	}
	return n
}

// --------------------------------------------------------------------------
// Info and Lifecycle
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database
func (maple *mapleImpl) GetInfo(now uint64) db.DatabaseInfo {
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		keys       int
		expired    int
		shardSizes = make([]float64, len(maple.shards))
	)

	// concurrently walk all shards
	wg.Add(len(maple.shards))
	for i, shard := range maple.shards {
		go func(i int, s *internal.Shard) {
			defer wg.Done()
			count, expiredCount := 0, 0
			s.Data.Range(func(_ string, entry internal.Entry) bool {
				count++
				if entry.Status(now) == db.StatusExpired {
					expiredCount++
				}
				return true
			})

			mu.Lock()
			defer mu.Unlock()
			keys += count
			expired += expiredCount
			shardSizes[i] = float64(count)
		}(i, shard)
	}
	wg.Wait()

	meta := &struct {
		ShardCount        int                    `json:"shard_count"`
		ShardDistribution util.DistributionStats `json:"shard_distribution"`
	}{
		ShardCount:        maple.numShards,
		ShardDistribution: util.NewDistributionStats(shardSizes),
	}

	return db.DatabaseInfo{
		Keys:        keys,
		ExpiredKeys: expired,
		DbType:      db.ImplMaple,
		Metadata:    meta,
	}
}

// Close drops all entries. The database stays usable but empty.
func (maple *mapleImpl) Close() error {
	for _, shard := range maple.shards {
		shard.Data.Clear()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// copyBytes copies b so the caller and the database never share a backing array.
// A nil slice is stored as an empty value.
func copyBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
