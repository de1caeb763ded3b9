// Package cache implements the bounded TTL cache used by all source adapters.
// Entries are JSON blobs of the form {data, timestamp, ttl} stored under a
// namespaced key; stale entries are evicted lazily on read, and a full store
// evicts its single oldest namespaced entry before retrying a write once.
// The cache is best-effort and never a source of truth: every failure path
// degrades to a miss or a dropped write.
package cache

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ai-digest/internal/observability/metrics"
)

// Prefix namespaces every cache key. Clear removes only prefixed keys, so
// unrelated data sharing a store file survives.
const Prefix = "ai-digest:"

// ErrStoreFull is returned by a Store whose capacity or quota is exhausted.
var ErrStoreFull = errors.New("cache store full")

// Store is the persistence backend of the cache. Implementations must be
// safe for concurrent use; the cache itself adds no locking.
type Store interface {
	// Read returns the value stored under key, and whether it was present.
	Read(key string) ([]byte, bool, error)

	// Write stores value under key, returning ErrStoreFull when out of space.
	Write(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Keys lists every key currently present, prefixed or not.
	Keys() ([]string, error)
}

// Entry is the serialized form of one cache record. Timestamp and TTL are
// epoch milliseconds, matching the on-disk layout of earlier deployments.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	TTL       int64           `json:"ttl"`
}

// Cache is a namespaced key-value cache with per-entry TTL.
type Cache struct {
	store Store
	now   func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the cache's time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache over the given store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get loads the entry stored under key into v. It returns false on a miss,
// a stale entry (which it deletes), or any decode failure.
func (c *Cache) Get(key string, v any) bool {
	raw, ok, err := c.store.Read(Prefix + key)
	if err != nil || !ok {
		metrics.RecordCacheMiss()
		return false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Corrupt entry; drop it so the next write starts clean.
		_ = c.store.Delete(Prefix + key)
		metrics.RecordCacheMiss()
		return false
	}

	if c.now().UnixMilli()-entry.Timestamp > entry.TTL {
		_ = c.store.Delete(Prefix + key)
		metrics.RecordCacheExpired()
		return false
	}

	if err := json.Unmarshal(entry.Data, v); err != nil {
		metrics.RecordCacheMiss()
		return false
	}
	metrics.RecordCacheHit()
	return true
}

// Set stores v under key with the given TTL. On a full store it evicts the
// single globally-oldest namespaced entry and retries once; if the retry
// also fails the write is silently dropped.
func (c *Cache) Set(key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache value not serializable, skipping",
			slog.String("key", key),
			slog.Any("error", err))
		return
	}
	entry, err := json.Marshal(Entry{
		Data:      data,
		Timestamp: c.now().UnixMilli(),
		TTL:       ttl.Milliseconds(),
	})
	if err != nil {
		return
	}

	writeErr := c.store.Write(Prefix+key, entry)
	if writeErr == nil {
		return
	}
	if !errors.Is(writeErr, ErrStoreFull) {
		slog.Warn("cache write failed",
			slog.String("key", key),
			slog.Any("error", writeErr))
		return
	}

	c.evictOldest()
	if err := c.store.Write(Prefix+key, entry); err != nil {
		metrics.RecordCacheDrop()
		slog.Warn("cache write dropped after eviction retry",
			slog.String("key", key),
			slog.Any("error", err))
	}
}

// Clear removes every namespaced entry, leaving unrelated keys untouched.
func (c *Cache) Clear() {
	keys, err := c.store.Keys()
	if err != nil {
		return
	}
	for _, k := range keys {
		if strings.HasPrefix(k, Prefix) {
			_ = c.store.Delete(k)
		}
	}
}

// evictOldest removes the namespaced entry with the smallest timestamp.
// Unparseable entries are skipped, not deleted: they may belong to another
// schema version sharing the namespace.
func (c *Cache) evictOldest() {
	keys, err := c.store.Keys()
	if err != nil {
		return
	}

	oldestKey := ""
	oldestTime := int64(0)
	for _, k := range keys {
		if !strings.HasPrefix(k, Prefix) {
			continue
		}
		raw, ok, err := c.store.Read(k)
		if err != nil || !ok {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if oldestKey == "" || entry.Timestamp < oldestTime {
			oldestKey = k
			oldestTime = entry.Timestamp
		}
	}

	if oldestKey != "" {
		_ = c.store.Delete(oldestKey)
		metrics.RecordCacheEviction()
	}
}
