package cache

import "sync"

// MemoryStore is a capacity-bounded in-process Store. It is the default when
// no cache file is configured, and the workhorse of the test suite.
type MemoryStore struct {
	mu         sync.RWMutex
	data       map[string][]byte
	maxEntries int
}

// NewMemoryStore creates a MemoryStore holding at most maxEntries values.
// maxEntries <= 0 means unbounded.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string][]byte),
		maxEntries: maxEntries,
	}
}

// Read returns the value stored under key.
func (s *MemoryStore) Read(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

// Write stores value under key, returning ErrStoreFull when inserting a new
// key would exceed the capacity. Overwriting an existing key always succeeds.
func (s *MemoryStore) Write(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; !exists && s.maxEntries > 0 && len(s.data) >= s.maxEntries {
		return ErrStoreFull
	}
	s.data[key] = value
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Keys lists every stored key.
func (s *MemoryStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
