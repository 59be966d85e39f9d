package internal

import (
	"testing"

	"github.com/ValentinKolb/rKV/lib/db"
)

func TestEntryStatus(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		now   uint64
		want  db.Status
	}{
		{"no ttl", Entry{CreatedAt: 100}, 1 << 40, db.StatusFound},
		{"within ttl", Entry{CreatedAt: 100, TTL: 10, HasTTL: true}, 105, db.StatusFound},
		{"exactly at ttl", Entry{CreatedAt: 100, TTL: 10, HasTTL: true}, 110, db.StatusFound},
		{"past ttl", Entry{CreatedAt: 100, TTL: 10, HasTTL: true}, 111, db.StatusExpired},
		{"zero ttl same ms", Entry{CreatedAt: 100, TTL: 0, HasTTL: true}, 100, db.StatusFound},
		{"zero ttl next ms", Entry{CreatedAt: 100, TTL: 0, HasTTL: true}, 101, db.StatusExpired},
		{"clock went backwards", Entry{CreatedAt: 100, TTL: 10, HasTTL: true}, 50, db.StatusFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Status(tt.now); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetShardIsStable(t *testing.T) {
	shards := []*Shard{NewShard(), NewShard(), NewShard()}
	for _, h := range []uint64{0, 1, 127, 128, 1 << 63} {
		if GetShard(h, shards) != GetShard(h, shards) {
			t.Errorf("GetShard(%d) is not stable", h)
		}
	}
}
