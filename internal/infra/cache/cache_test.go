package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type payload struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// fakeClock is a controllable time source for TTL tests.
type fakeClock struct {
	current time.Time
}

func (f *fakeClock) now() time.Time          { return f.current }
func (f *fakeClock) advance(d time.Duration) { f.current = f.current.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCache_RoundTrip(t *testing.T) {
	clock := newFakeClock()
	c := New(NewMemoryStore(0), WithClock(clock.now))

	stored := payload{Title: "GPT-5 Released", Tags: []string{"ai", "release"}}
	c.Set("news", stored, 10*time.Minute)

	var loaded payload
	if !c.Get("news", &loaded) {
		t.Fatal("expected a hit immediately after Set")
	}
	if diff := cmp.Diff(stored, loaded); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCache_ExpiryEvictsLazily(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(0)
	c := New(store, WithClock(clock.now))

	c.Set("papers", payload{Title: "stale"}, 30*time.Minute)

	clock.advance(31 * time.Minute)

	var loaded payload
	if c.Get("papers", &loaded) {
		t.Fatal("expected a miss after TTL elapsed")
	}
	// Lazy eviction: the stale entry must be gone from the store.
	if _, ok, _ := store.Read(Prefix + "papers"); ok {
		t.Error("expected stale entry to be deleted on read")
	}
}

func TestCache_ExactTTLBoundaryIsStillValid(t *testing.T) {
	clock := newFakeClock()
	c := New(NewMemoryStore(0), WithClock(clock.now))

	c.Set("k", payload{Title: "edge"}, 10*time.Minute)
	clock.advance(10 * time.Minute)

	var loaded payload
	if !c.Get("k", &loaded) {
		t.Error("entry is valid while now - timestamp <= ttl")
	}
}

func TestCache_MissOnAbsentKey(t *testing.T) {
	c := New(NewMemoryStore(0))
	var loaded payload
	if c.Get("nothing", &loaded) {
		t.Error("expected miss for absent key")
	}
}

func TestCache_FullStoreEvictsOldestAndRetries(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(2)
	c := New(store, WithClock(clock.now))

	c.Set("oldest", payload{Title: "first"}, time.Hour)
	clock.advance(1 * time.Minute)
	c.Set("newer", payload{Title: "second"}, time.Hour)
	clock.advance(1 * time.Minute)

	// Store is full; this write must evict "oldest" and then succeed.
	c.Set("latest", payload{Title: "third"}, time.Hour)

	var loaded payload
	if c.Get("oldest", &loaded) {
		t.Error("expected the globally-oldest entry to be evicted")
	}
	if !c.Get("newer", &loaded) {
		t.Error("expected the newer entry to survive eviction")
	}
	if !c.Get("latest", &loaded) || loaded.Title != "third" {
		t.Error("expected the retried write to land")
	}
}

func TestCache_CorruptEntryIsDroppedOnRead(t *testing.T) {
	store := NewMemoryStore(0)
	c := New(store)

	if err := store.Write(Prefix+"bad", []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	var loaded payload
	if c.Get("bad", &loaded) {
		t.Error("expected miss for corrupt entry")
	}
	if _, ok, _ := store.Read(Prefix + "bad"); ok {
		t.Error("expected corrupt entry to be deleted")
	}
}

func TestCache_ClearRemovesOnlyNamespacedKeys(t *testing.T) {
	store := NewMemoryStore(0)
	c := New(store)

	c.Set("a", payload{Title: "a"}, time.Hour)
	c.Set("b", payload{Title: "b"}, time.Hour)
	if err := store.Write("unrelated-key", []byte(`"kept"`)); err != nil {
		t.Fatal(err)
	}

	c.Clear()

	var loaded payload
	if c.Get("a", &loaded) || c.Get("b", &loaded) {
		t.Error("expected namespaced entries to be cleared")
	}
	if _, ok, _ := store.Read("unrelated-key"); !ok {
		t.Error("Clear must not touch keys outside the namespace")
	}
}

func TestMemoryStore_CapacityAndOverwrite(t *testing.T) {
	store := NewMemoryStore(1)

	if err := store.Write("k1", []byte("v1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Write("k2", []byte("v2")); err != ErrStoreFull {
		t.Errorf("expected ErrStoreFull for new key, got %v", err)
	}
	// Overwrites never hit the capacity check.
	if err := store.Write("k1", []byte("v1b")); err != nil {
		t.Errorf("overwrite should succeed, got %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	store, err := OpenSQLiteStore(dbPath, 2)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	t.Run("read-write-delete", func(t *testing.T) {
		if err := store.Write("k", []byte("v")); err != nil {
			t.Fatalf("write: %v", err)
		}
		value, ok, err := store.Read("k")
		if err != nil || !ok || string(value) != "v" {
			t.Fatalf("read = %q, %v, %v", value, ok, err)
		}
		if err := store.Delete("k"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, ok, _ := store.Read("k"); ok {
			t.Error("expected key to be gone after delete")
		}
	})

	t.Run("quota", func(t *testing.T) {
		if err := store.Write("a", []byte("1")); err != nil {
			t.Fatal(err)
		}
		if err := store.Write("b", []byte("2")); err != nil {
			t.Fatal(err)
		}
		if err := store.Write("c", []byte("3")); err != ErrStoreFull {
			t.Errorf("expected ErrStoreFull at row cap, got %v", err)
		}
		// Overwriting within quota is fine.
		if err := store.Write("a", []byte("1b")); err != nil {
			t.Errorf("overwrite within quota should succeed, got %v", err)
		}
	})

	t.Run("keys", func(t *testing.T) {
		keys, err := store.Keys()
		if err != nil {
			t.Fatal(err)
		}
		if len(keys) != 2 {
			t.Errorf("expected 2 keys, got %d (%v)", len(keys), keys)
		}
	})

	t.Run("cache works over sqlite store", func(t *testing.T) {
		c := New(store)
		c.Clear()
		c.Set("sq", payload{Title: "persisted"}, time.Hour)
		var loaded payload
		if !c.Get("sq", &loaded) || loaded.Title != "persisted" {
			t.Error("expected cache round-trip over sqlite store")
		}
	})
}
