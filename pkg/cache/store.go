// Package cache provides the in-memory stores used by routekit: a generic
// key/value store with prefix flushing, and the route cache keyed by scan root.
package cache

import (
	"sort"
	"strings"
	"sync"
)

// Store is a concurrency-safe in-memory key/value store. Entries never expire;
// callers remove them with Delete, Flush or Clear.
type Store[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// NewStore creates an empty store.
func NewStore[V any]() *Store[V] {
	return &Store[V]{items: make(map[string]V)}
}

// Set stores value under key, replacing any previous value.
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// Get returns the value stored under key.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Has reports whether key is present.
func (s *Store[V]) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (s *Store[V]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	delete(s.items, key)
	return ok
}

// Flush removes every key starting with prefix and returns how many were
// removed. An empty prefix clears the store.
func (s *Store[V]) Flush(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
			n++
		}
	}
	return n
}

// Clear removes every entry.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]V)
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Keys returns the keys in sorted order.
func (s *Store[V]) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Range calls fn for each entry in key order until fn returns false.
func (s *Store[V]) Range(fn func(key string, value V) bool) {
	for _, key := range s.Keys() {
		v, ok := s.Get(key)
		if !ok {
			continue
		}
		if !fn(key, v) {
			return
		}
	}
}
