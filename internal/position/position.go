// Package position remembers where each track was when it last stopped.
// Entries live in memory only and are dropped on Reset.
package position

import (
	"sync"
	"time"
)

// Store maps track locators to their last playback offset.
type Store struct {
	mu      sync.Mutex
	offsets map[string]time.Duration
}

// New returns an empty store.
func New() *Store {
	return &Store{offsets: make(map[string]time.Duration)}
}

// Get returns the saved offset for track, or 0.
func (s *Store) Get(track string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offsets[track]
}

// Set records offset for track. Negative offsets are stored as 0 and an
// empty track is ignored.
func (s *Store) Set(track string, offset time.Duration) {
	if track == "" {
		return
	}
	s.mu.Lock()
	s.offsets[track] = max(offset, 0)
	s.mu.Unlock()
}

// Len returns the number of tracks with a saved offset.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.offsets)
}

// Reset forgets every saved offset.
func (s *Store) Reset() {
	s.mu.Lock()
	clear(s.offsets)
	s.mu.Unlock()
}
