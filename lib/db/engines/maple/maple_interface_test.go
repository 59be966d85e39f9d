package maple

import (
	"testing"

	"github.com/ValentinKolb/rKV/lib/db"
	dbtesting "github.com/ValentinKolb/rKV/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})
}

func TestSingleShard(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB(1 shard)", func() db.KVDB {
		return NewMapleDB(&DBOptions{NumShards: 1})
	})
}

func TestCloseDropsEntries(t *testing.T) {
	database := NewMapleDB(nil)
	database.Set("k", []byte("v"), 1)
	if err := database.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, status := database.Get("k", 1); status != db.StatusNotFound {
		t.Errorf("Get() after Close() status = %v, want %v", status, db.StatusNotFound)
	}
}

func Benchmark(t *testing.B) {
	dbtesting.RunKVDBBenchmarks(t, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})
}
