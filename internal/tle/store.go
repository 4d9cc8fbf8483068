package tle

import (
	"sync"
	"sync/atomic"
	"time"
)

// Store provides thread-safe access to the current element set. Readers
// see a consistent *Set via an atomic pointer swap; refreshes are
// serialized by the fetch mutex.
type Store struct {
	set atomic.Pointer[Set]
	mu  sync.Mutex
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current element set, or nil if none has been loaded.
func (s *Store) Get() *Set {
	return s.set.Load()
}

// Put atomically replaces the current element set.
func (s *Store) Put(set *Set) {
	s.set.Store(set)
}

// Ready reports whether an element set has been loaded.
func (s *Store) Ready() bool {
	return s.set.Load() != nil
}

// AgeSeconds returns the age of the current element set in seconds,
// or -1 if none is loaded.
func (s *Store) AgeSeconds() float64 {
	set := s.set.Load()
	if set == nil {
		return -1
	}
	return time.Since(set.FetchedAt).Seconds()
}

// EpochAgeSeconds returns the time since the element set epoch in seconds,
// or -1 if none is loaded.
func (s *Store) EpochAgeSeconds() float64 {
	set := s.set.Load()
	if set == nil {
		return -1
	}
	return time.Since(set.TLE.Epoch).Seconds()
}

// Lock acquires the fetch mutex for serializing refresh operations.
func (s *Store) Lock() {
	s.mu.Lock()
}

// Unlock releases the fetch mutex.
func (s *Store) Unlock() {
	s.mu.Unlock()
}
