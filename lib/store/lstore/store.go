package lstore

import (
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/db/util"
	"github.com/ValentinKolb/rKV/lib/store"
)

// Clock returns the current time. It is read once per store operation.
type Clock func() time.Time

type storeImpl struct {
	db    db.KVDB
	clock Clock
}

// Option configures the local store
type Option func(*storeImpl)

// WithClock replaces the wall clock used to timestamp writes and evaluate ttls.
func WithClock(clock Clock) Option {
	return func(s *storeImpl) {
		s.clock = clock
	}
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
func NewLocalStore(factory store.DBFactory, opts ...Option) store.IStore {
	s := &storeImpl{
		db:    factory(),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// now returns the current time of the store clock in ms
func (s *storeImpl) now() uint64 {
	return util.NowMillis(s.clock())
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	s.db.Set(key, value, s.now())
	return nil
}

func (s *storeImpl) SetE(key string, value []byte, ttl uint64) error {
	s.db.SetE(key, value, s.now(), ttl)
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, db.Status, error) {
	val, status := s.db.Get(key, s.now())
	return val, status, nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(s.now()), nil
}
