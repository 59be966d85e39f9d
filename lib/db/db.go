package db

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMaple Implementation = "maple"
)

// Status is the outcome of a lookup
type Status int

const (
	StatusNotFound Status = iota // no entry for the key
	StatusFound                  // entry exists and is not expired
	StatusExpired                // entry exists but its ttl has elapsed
)

func (s Status) String() string {
	switch s {
	case StatusNotFound:
		return "NotFound"
	case StatusFound:
		return "Found"
	case StatusExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	Keys        int            `json:"keys"`
	ExpiredKeys int            `json:"expired_keys"`
	DbType      Implementation `json:"db_type"`
	Metadata    interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for key-value database implementations.
// Time is passed in by the caller as wall-clock milliseconds, so implementations never read
// a clock themselves.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or updates an entry without a ttl.
	// now is recorded as the creation time of the entry.
	Set(key string, value []byte, now uint64)

	// SetE inserts or updates an entry that expires once more than ttl milliseconds
	// have elapsed since now.
	SetE(key string, value []byte, now uint64, ttl uint64)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for a key and evaluates its ttl against now.
	// An expired entry is not removed and reports StatusExpired until it is overwritten.
	// The value is only returned for StatusFound.
	Get(key string, now uint64) (value []byte, status Status)

	// Len returns the number of entries, including expired ones
	Len() int

	// GetInfo returns information about the database.
	GetInfo(now uint64) (info DatabaseInfo)

	// Close closes the database.
	Close() (err error)
}
