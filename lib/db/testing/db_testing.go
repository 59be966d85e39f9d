package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/rKV/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// baseTime is an arbitrary wall-clock time (ms) used as "now" by the tests
const baseTime uint64 = 1_700_000_000_000

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("KeyExpiry", func(t *testing.T) {
			testKeyExpiry(t, factory())
		})

		t.Run("ExpiredEntriesArePersistent", func(t *testing.T) {
			testExpiredEntriesArePersistent(t, factory())
		})

		t.Run("ClockSkew", func(t *testing.T) {
			testClockSkew(t, factory())
		})

		t.Run("OverwriteReplacesTTL", func(t *testing.T) {
			testOverwriteReplacesTTL(t, factory())
		})

		t.Run("ManyExpiringKeys", func(t *testing.T) {
			testManyExpiringKeys(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("CollisionHandling", func(t *testing.T) {
			testCollisionHandling(t, factory())
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})

		t.Run("ConcurrentWrites", func(t *testing.T) {
			testConcurrentWrites(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// expectStatus fails the test if the lookup of key at now does not report want
func expectStatus(t testing.TB, database db.KVDB, key string, now uint64, want db.Status) []byte {
	t.Helper()
	value, status := database.Get(key, now)
	if status != want {
		t.Errorf("Get(%q, %d) status = %v, want %v", key, now, status, want)
	}
	if status != db.StatusFound && value != nil {
		t.Errorf("Get(%q, %d) returned value %q with status %v", key, now, value, status)
	}
	return value
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	database.Set(testKey, testValue1, baseTime)
	if result := expectStatus(t, database, testKey, baseTime, db.StatusFound); !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	database.Set(testKey, testValue2, baseTime)
	if result := expectStatus(t, database, testKey, baseTime, db.StatusFound); !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	expectStatus(t, database, "nonexistent-key", baseTime, db.StatusNotFound)

	// values handed out must not alias the stored data
	retrievedValue, _ := database.Get(testKey, baseTime)
	retrievedValue[0] = 'X'
	if result, _ := database.Get(testKey, baseTime); !bytes.Equal(result, testValue2) {
		t.Errorf("Modifying a returned value changed the stored value: %s", result)
	}

	// values passed in must not alias the stored data
	input := []byte("input")
	database.Set("input-key", input, baseTime)
	input[0] = 'X'
	if result, _ := database.Get("input-key", baseTime); string(result) != "input" {
		t.Errorf("Modifying the input changed the stored value: %s", result)
	}
}

func testKeyExpiry(t *testing.T, database db.KVDB) {
	defer database.Close()

	database.SetE("ttl-key", []byte("v"), baseTime, 10)

	expectStatus(t, database, "ttl-key", baseTime, db.StatusFound)
	expectStatus(t, database, "ttl-key", baseTime+5, db.StatusFound)
	expectStatus(t, database, "ttl-key", baseTime+10, db.StatusFound)
	expectStatus(t, database, "ttl-key", baseTime+11, db.StatusExpired)
	expectStatus(t, database, "ttl-key", baseTime+50, db.StatusExpired)

	// a ttl of zero is still a ttl: live in the same ms, expired after
	database.SetE("zero-ttl", []byte("v"), baseTime, 0)
	expectStatus(t, database, "zero-ttl", baseTime, db.StatusFound)
	expectStatus(t, database, "zero-ttl", baseTime+1, db.StatusExpired)

	// keys without a ttl never expire
	database.Set("no-ttl", []byte("v"), baseTime)
	expectStatus(t, database, "no-ttl", ^uint64(0), db.StatusFound)
}

func testExpiredEntriesArePersistent(t *testing.T, database db.KVDB) {
	defer database.Close()

	database.SetE("k", []byte("v"), baseTime, 1)

	for i := 0; i < 3; i++ {
		expectStatus(t, database, "k", baseTime+100, db.StatusExpired)
	}
	if database.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (expired entries are kept)", database.Len())
	}

	// overwriting revives the key
	database.Set("k", []byte("w"), baseTime+100)
	if result := expectStatus(t, database, "k", baseTime+200, db.StatusFound); string(result) != "w" {
		t.Errorf("Expected value w, got %s", result)
	}
}

func testClockSkew(t *testing.T, database db.KVDB) {
	defer database.Close()

	database.SetE("k", []byte("v"), baseTime, 10)

	// the clock went backwards: the entry must not be reported as expired
	expectStatus(t, database, "k", baseTime-1000, db.StatusFound)
	expectStatus(t, database, "k", 0, db.StatusFound)
}

func testOverwriteReplacesTTL(t *testing.T, database db.KVDB) {
	defer database.Close()

	database.SetE("k", []byte("short"), baseTime, 5)
	database.Set("k", []byte("forever"), baseTime+1)
	expectStatus(t, database, "k", baseTime+1000, db.StatusFound)

	database.Set("k2", []byte("forever"), baseTime)
	database.SetE("k2", []byte("short"), baseTime, 5)
	expectStatus(t, database, "k2", baseTime+6, db.StatusExpired)

	// a later SetE restarts the ttl from its own write time
	database.SetE("k3", []byte("a"), baseTime, 10)
	database.SetE("k3", []byte("b"), baseTime+8, 10)
	if result := expectStatus(t, database, "k3", baseTime+15, db.StatusFound); string(result) != "b" {
		t.Errorf("Expected value b, got %s", result)
	}
}

func testManyExpiringKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	const numKeys = 1000
	for i := 0; i < numKeys; i++ {
		database.SetE(fmt.Sprintf("key-%d", i), []byte("v"), baseTime, uint64(i))
	}

	// at baseTime+500 every key with ttl < 500 is expired
	for i := 0; i < numKeys; i++ {
		want := db.StatusFound
		if i < 500 {
			want = db.StatusExpired
		}
		expectStatus(t, database, fmt.Sprintf("key-%d", i), baseTime+500, want)
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	emptyKeyValue := []byte("value for empty key")
	database.Set("", emptyKeyValue, baseTime)
	if result := expectStatus(t, database, "", baseTime, db.StatusFound); !bytes.Equal(result, emptyKeyValue) {
		t.Errorf("Value mismatch for empty key")
	}

	database.Set("nil-value-key", nil, baseTime)
	if result := expectStatus(t, database, "nil-value-key", baseTime, db.StatusFound); len(result) != 0 {
		t.Errorf("Nil value resulted in non-empty value: %v", result)
	}

	binaryKey := "a\r\nb\x00c"
	binaryValue := []byte{0, '\r', '\n', 0xff}
	database.Set(binaryKey, binaryValue, baseTime)
	if result := expectStatus(t, database, binaryKey, baseTime, db.StatusFound); !bytes.Equal(result, binaryValue) {
		t.Errorf("Binary value mismatch: %v", result)
	}

	largeKey := string(make([]byte, 1000))
	database.Set(largeKey, []byte("value for large key"), baseTime)
	expectStatus(t, database, largeKey, baseTime, db.StatusFound)

	largeValue := make([]byte, 8*1024*1024)
	for i := range largeValue {
		largeValue[i] = byte(i % 256)
	}
	database.Set("large-value-key", largeValue, baseTime)
	if result := expectStatus(t, database, "large-value-key", baseTime, db.StatusFound); !bytes.Equal(result, largeValue) {
		t.Errorf("Large value mismatch (len %d, want %d)", len(result), len(largeValue))
	}
}

func testCollisionHandling(t *testing.T, database db.KVDB) {
	defer database.Close()

	prefix := "collision-test-"
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		database.Set(fmt.Sprintf("%s%d", prefix, i), []byte(fmt.Sprintf("value-%d", i)), baseTime)
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		expectedValue := []byte(fmt.Sprintf("value-%d", i))

		actualValue := expectStatus(t, database, key, baseTime, db.StatusFound)
		if !bytes.Equal(actualValue, expectedValue) {
			t.Errorf("Value for key %s does not match: expected %s, got %s", key, expectedValue, actualValue)
		}
	}

	if database.Len() != numKeys {
		t.Errorf("Len() = %d, want %d", database.Len(), numKeys)
	}
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	database.Set("a", []byte("1"), baseTime)
	database.SetE("b", []byte("2"), baseTime, 10)
	database.SetE("c", []byte("3"), baseTime, 1000)

	info := database.GetInfo(baseTime + 100)
	if info.Keys != 3 {
		t.Errorf("GetInfo().Keys = %d, want 3", info.Keys)
	}
	if info.ExpiredKeys != 1 {
		t.Errorf("GetInfo().ExpiredKeys = %d, want 1", info.ExpiredKeys)
	}
	if info.DbType == "" {
		t.Errorf("GetInfo().DbType is empty")
	}
}

// testConcurrentWrites checks that concurrent writers to the same key never produce a value
// that was not written as a whole by one of them.
func testConcurrentWrites(t *testing.T, database db.KVDB) {
	defer database.Close()

	const (
		numWorkers = 8
		numOps     = 2000
	)

	values := make([][]byte, numWorkers)
	for w := range values {
		values[w] = bytes.Repeat([]byte{byte('a' + w)}, 256)
	}

	var wg sync.WaitGroup
	wg.Add(numWorkers * 2)
	for w := 0; w < numWorkers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < numOps; i++ {
				database.Set("shared", values[w], baseTime)
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < numOps; i++ {
				value, status := database.Get("shared", baseTime)
				if status != db.StatusFound {
					continue
				}
				if len(value) != 256 || !bytes.Equal(value, bytes.Repeat(value[:1], 256)) {
					t.Errorf("Observed torn value: %q", value)
					return
				}
			}
		}()
	}
	wg.Wait()
}
