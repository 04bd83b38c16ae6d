// Package store persists the mapping from resource ID to last known fingerprint.
package store

import (
	"sort"
	"sync"

	"github.com/aleister1102/pagewatch/internal/fingerprint"
)

// Store is the in-memory fingerprint mapping. It is safe for concurrent use,
// although a monitoring run mutates it from a single goroutine.
type Store struct {
	mu      sync.RWMutex
	entries map[string]fingerprint.Fingerprint
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]fingerprint.Fingerprint)}
}

// Get returns the fingerprint recorded for id.
func (s *Store) Get(id string) (fingerprint.Fingerprint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fp, ok := s.entries[id]
	return fp, ok
}

// Set records fp as the latest fingerprint for id.
func (s *Store) Set(id string, fp fingerprint.Fingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = fp
}

// Delete removes id and reports whether it was present.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IDs returns all IDs in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy of the mapping.
func (s *Store) Snapshot() map[string]fingerprint.Fingerprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]fingerprint.Fingerprint, len(s.entries))
	for id, fp := range s.entries {
		out[id] = fp
	}
	return out
}

// Prune removes every entry whose ID is not in keep and returns the removed IDs, sorted.
func (s *Store) Prune(keep map[string]struct{}) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for id := range s.entries {
		if _, ok := keep[id]; !ok {
			removed = append(removed, id)
			delete(s.entries, id)
		}
	}
	sort.Strings(removed)
	return removed
}
