package tle

import (
	"sync/atomic"
	"time"
)

// Store holds the active TLE dataset behind an atomic pointer. Request
// handlers read it lock-free; the refetch loop swaps in whole datasets so
// readers never observe a partially updated catalog.
type Store struct {
	active atomic.Pointer[Dataset]
}

func NewStore() *Store {
	return &Store{}
}

// Current returns the active dataset, or nil before the first load.
func (s *Store) Current() *Dataset {
	return s.active.Load()
}

// Replace swaps in a freshly parsed dataset.
func (s *Store) Replace(ds *Dataset) {
	s.active.Store(ds)
}

// Age reports how long ago the active dataset was fetched. ok is false
// before the first load.
func (s *Store) Age() (age time.Duration, ok bool) {
	ds := s.active.Load()
	if ds == nil {
		return 0, false
	}
	return time.Since(ds.FetchedAt), true
}
